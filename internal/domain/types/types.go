// Package types contains common types used across the application
package types

// Categories lists the fitted vocabularies in encoding order.
type Categories struct {
	Tools    []string `json:"tools" yaml:"tools"`
	Purposes []string `json:"purposes" yaml:"purposes"`
}

// Empty returns categories with non-nil empty lists so they render as [].
func Empty() Categories {
	return Categories{Tools: []string{}, Purposes: []string{}}
}
