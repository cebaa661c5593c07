package optimizer

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/schoolgrid/timetable/internal/constraint"
)

// scoreDecay keeps the improvement average responsive to recent outcomes.
const scoreDecay = 0.8

// Signature buckets a violation's context coarsely enough that repairs
// learned in one week transfer to similar situations in another.
type Signature struct {
	Kind         string `json:"kind"`
	DayBucket    int    `json:"dayBucket"`
	PeriodBucket int    `json:"periodBucket"`
	HasTeacher   bool   `json:"hasTeacher"`
	HasSubject   bool   `json:"hasSubject"`
}

func signatureOf(violation constraint.Violation) Signature {
	dayBucket := 0
	if violation.Slot.Day > 3 {
		dayBucket = 1
	}
	periodBucket := 0
	if violation.Slot.Period > 3 {
		periodBucket = 1
	}
	return Signature{
		Kind:         violation.Kind.String(),
		DayBucket:    dayBucket,
		PeriodBucket: periodBucket,
		HasTeacher:   violation.Teacher != "",
		HasSubject:   violation.Subject != "",
	}
}

func (s Signature) key() string {
	return fmt.Sprintf("%v|%v|%v|%v|%v", s.Kind, s.DayBucket, s.PeriodBucket, s.HasTeacher, s.HasSubject)
}

// MoveTemplate is a location-independent description of one chain step.
type MoveTemplate struct {
	Kind         string `json:"kind"`
	DayOffset    int    `json:"dayOffset"`
	PeriodOffset int    `json:"periodOffset"`
}

// Template is a learned swap-chain shape with its track record.
type Template struct {
	Moves     []MoveTemplate `json:"moves"`
	Successes int            `json:"successes"`
	Score     float64        `json:"score"`
}

func templateOf(violation constraint.Violation, chain swapChain) []MoveTemplate {
	templates := make([]MoveTemplate, 0, len(chain.moves))
	for _, step := range chain.moves {
		templates = append(templates, MoveTemplate{
			Kind:         step.kind.String(),
			DayOffset:    step.to.Day - violation.Slot.Day,
			PeriodOffset: step.to.Period - violation.Slot.Period,
		})
	}
	return templates
}

// PatternStore is the persisted learning state: violation-context signature
// to ranked swap-chain templates. It is opaque to callers, who only supply
// a storage location.
type PatternStore struct {
	mu      sync.Mutex
	entries map[string][]*Template
}

func NewPatternStore() *PatternStore {
	return &PatternStore{entries: make(map[string][]*Template)}
}

// Load reads the store from disk. A missing or unreadable file yields an
// empty store; learning starts over rather than blocking optimization.
func (s *PatternStore) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	entries := make(map[string][]*Template)
	if err := mapstructure.Decode(payload, &entries); err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	return nil
}

// Save writes the store to disk.
func (s *PatternStore) Save(path string) error {
	s.mu.Lock()
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0666)
}

// Record registers an accepted repair, incrementing the matching template's
// success counter and decaying its improvement-score average.
func (s *PatternStore) Record(violation constraint.Violation, chain swapChain, improvement float64) {
	signature := signatureOf(violation)
	moves := templateOf(violation, chain)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := signature.key()
	for _, template := range s.entries[key] {
		if slices.Equal(template.Moves, moves) {
			template.Successes++
			template.Score = template.Score*scoreDecay + improvement*(1-scoreDecay)
			s.rank(key)
			return
		}
	}
	s.entries[key] = append(s.entries[key], &Template{Moves: moves, Successes: 1, Score: improvement})
	s.rank(key)
}

// Boost returns a priority multiplier >= 1 derived from the historical
// success of patterns matching the violation's context.
func (s *PatternStore) Boost(violation constraint.Violation) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	templates := s.entries[signatureOf(violation).key()]
	if len(templates) == 0 {
		return 1.0
	}
	successes := templates[0].Successes
	if successes > 10 {
		successes = 10
	}
	return 1.0 + float64(successes)*0.1
}

// Templates returns the ranked swap-chain templates for a violation context.
func (s *PatternStore) Templates(violation constraint.Violation) []Template {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.entries[signatureOf(violation).key()]
	templates := make([]Template, 0, len(stored))
	for _, template := range stored {
		templates = append(templates, *template)
	}
	return templates
}

// Len reports the number of distinct signatures learned.
func (s *PatternStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// rank keeps templates ordered by success count, then decayed score.
func (s *PatternStore) rank(key string) {
	slices.SortStableFunc(s.entries[key], func(a, b *Template) int {
		if a.Successes != b.Successes {
			return b.Successes - a.Successes
		}
		if a.Score > b.Score {
			return -1
		} else if a.Score < b.Score {
			return 1
		}
		return 0
	})
}
