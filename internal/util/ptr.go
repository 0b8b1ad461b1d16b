package util

import "strconv"

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

// FloatOrNA renders a nullable numeric the way the report formats expect:
// the literal "N/A" keeps section shape uniform across stations.
func FloatOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func StringOrNA(v *string) string {
	if v == nil || *v == "" {
		return "N/A"
	}
	return *v
}
