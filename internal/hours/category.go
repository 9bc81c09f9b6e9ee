package hours

import "strings"

// Category classifies a complementary activity. The set is closed.
type Category string

// Supported activity categories.
const (
	CategoryEvents       Category = "events"
	CategoryOrganization Category = "organization"
	CategoryResearch     Category = "research"
	CategoryExtension    Category = "extension"
	CategoryMonitoring   Category = "monitoring"
	CategoryInternship   Category = "internship"
	CategoryPublications Category = "publications"
	CategoryCourses      Category = "courses"
)

var categories = []Category{
	CategoryEvents,
	CategoryOrganization,
	CategoryResearch,
	CategoryExtension,
	CategoryMonitoring,
	CategoryInternship,
	CategoryPublications,
	CategoryCourses,
}

var labels = map[Category]string{
	CategoryEvents:       "Eventos",
	CategoryOrganization: "Organização",
	CategoryResearch:     "Pesquisa",
	CategoryExtension:    "Extensão",
	CategoryMonitoring:   "Monitoria",
	CategoryInternship:   "Estágio",
	CategoryPublications: "Publicações",
	CategoryCourses:      "Cursos",
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether the category belongs to the enumerated set.
func (c Category) Valid() bool {
	_, ok := labels[c]
	return ok
}

// Label returns the display label used in reports and exports.
func (c Category) Label() string {
	if label, ok := labels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCategory accepts either the identifier or the display label, case-insensitively.
func ParseCategory(value string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", false
	}
	for _, c := range categories {
		if string(c) == normalized || strings.ToLower(labels[c]) == normalized {
			return c, true
		}
	}
	return "", false
}

func (c Category) order() int {
	for i, candidate := range categories {
		if candidate == c {
			return i
		}
	}
	return len(categories)
}
