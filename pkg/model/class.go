package model

import "fmt"

const (
	MinGrade = 1
	MaxGrade = 3

	// Class numbers 1-4 are regular classes, 5 is the special-needs class
	// synchronized across grades, 6-7 are exchange classes paired to a
	// regular parent class.
	clusterClassNumber     = 5
	firstExchangeNumber    = 6
	lastExchangeNumber     = 7
	lastRegularClassNumber = 4
)

// ClassRef identifies a class by grade and number. Immutable value.
type ClassRef struct {
	Grade  int
	Number int
}

// exchangeParents permanently pairs each exchange class to its parent
// regular class.
var exchangeParents = map[ClassRef]ClassRef{
	{Grade: 1, Number: 6}: {Grade: 1, Number: 1},
	{Grade: 1, Number: 7}: {Grade: 1, Number: 2},
	{Grade: 2, Number: 6}: {Grade: 2, Number: 3},
	{Grade: 2, Number: 7}: {Grade: 2, Number: 2},
	{Grade: 3, Number: 6}: {Grade: 3, Number: 3},
	{Grade: 3, Number: 7}: {Grade: 3, Number: 2},
}

func (c ClassRef) Valid() bool {
	return c.Grade >= MinGrade && c.Grade <= MaxGrade && c.Number >= 1 && c.Number <= lastExchangeNumber
}

func (c ClassRef) IsRegular() bool {
	return c.Number >= 1 && c.Number <= lastRegularClassNumber
}

// IsClusterMember reports whether the class belongs to the three-member
// synchronized cluster (one class per grade).
func (c ClassRef) IsClusterMember() bool {
	return c.Number == clusterClassNumber
}

func (c ClassRef) IsExchange() bool {
	return c.Number >= firstExchangeNumber && c.Number <= lastExchangeNumber
}

// Parent returns the parent regular class of an exchange class.
func (c ClassRef) Parent() (ClassRef, bool) {
	parent, ok := exchangeParents[c]
	return parent, ok
}

func (c ClassRef) String() string {
	return fmt.Sprintf("%v-%v", c.Grade, c.Number)
}

// ClusterClasses returns the three synchronized special-needs classes.
func ClusterClasses() [3]ClassRef {
	return [3]ClassRef{
		{Grade: 1, Number: clusterClassNumber},
		{Grade: 2, Number: clusterClassNumber},
		{Grade: 3, Number: clusterClassNumber},
	}
}

// ExchangePairs returns a copy of the exchange-to-parent pairing table.
func ExchangePairs() map[ClassRef]ClassRef {
	pairs := make(map[ClassRef]ClassRef, len(exchangeParents))
	for exchange, parent := range exchangeParents {
		pairs[exchange] = parent
	}
	return pairs
}
