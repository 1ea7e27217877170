package render

import (
	"sort"

	"github.com/ThomasCrouzet/mediastack/internal/model"
)

// Theme defines colors for service categories and diagram elements.
type Theme struct {
	Name   string
	Colors map[string]ThemeColor
}

// ThemeColor defines fill and stroke colors for an element type.
type ThemeColor struct {
	Fill   string
	Stroke string
	Font   string
}

var themes = map[string]*Theme{
	"default": {
		Name: "default",
		Colors: map[string]ThemeColor{
			"media_servers":    {Fill: "#FEE2E2", Stroke: "#DC2626", Font: "#991B1B"},
			"media_management": {Fill: "#DCFCE7", Stroke: "#16A34A", Font: "#166534"},
			"indexers":         {Fill: "#FEF9C3", Stroke: "#CA8A04", Font: "#854D0E"},
			"download_clients": {Fill: "#E0F2FE", Stroke: "#0284C7", Font: "#075985"},
			"requests":         {Fill: "#FFF7ED", Stroke: "#EA580C", Font: "#9A3412"},
			"utility":          {Fill: "#F3F4F6", Stroke: "#6B7280", Font: "#374151"},
			"network":          {Fill: "#F8FAFC", Stroke: "#94A3B8", Font: "#334155"},
			"cloud":            {Fill: "#DBEAFE", Stroke: "#2563EB", Font: "#1E40AF"},
			"vpn":              {Fill: "#EDE9FE", Stroke: "#7C3AED", Font: "#5B21B6"},
			"maintenance":      {Fill: "#E0E7FF", Stroke: "#4F46E5", Font: "#3730A3"},
		},
	},
	"dark": {
		Name: "dark",
		Colors: map[string]ThemeColor{
			"media_servers":    {Fill: "#450A0A", Stroke: "#EF4444", Font: "#FCA5A5"},
			"media_management": {Fill: "#052E16", Stroke: "#22C55E", Font: "#86EFAC"},
			"indexers":         {Fill: "#422006", Stroke: "#EAB308", Font: "#FDE047"},
			"download_clients": {Fill: "#082F49", Stroke: "#0EA5E9", Font: "#7DD3FC"},
			"requests":         {Fill: "#431407", Stroke: "#F97316", Font: "#FDBA74"},
			"utility":          {Fill: "#1F2937", Stroke: "#9CA3AF", Font: "#D1D5DB"},
			"network":          {Fill: "#0F172A", Stroke: "#475569", Font: "#CBD5E1"},
			"cloud":            {Fill: "#1E3A5F", Stroke: "#3B82F6", Font: "#93C5FD"},
			"vpn":              {Fill: "#2E1065", Stroke: "#A78BFA", Font: "#C4B5FD"},
			"maintenance":      {Fill: "#1E1B4B", Stroke: "#818CF8", Font: "#A5B4FC"},
		},
	},
	"monochrome": {
		Name: "monochrome",
		Colors: map[string]ThemeColor{
			"media_servers":    {Fill: "#E5E7EB", Stroke: "#374151", Font: "#111827"},
			"media_management": {Fill: "#F3F4F6", Stroke: "#6B7280", Font: "#374151"},
			"indexers":         {Fill: "#F9FAFB", Stroke: "#9CA3AF", Font: "#4B5563"},
			"download_clients": {Fill: "#E5E7EB", Stroke: "#4B5563", Font: "#1F2937"},
			"requests":         {Fill: "#D1D5DB", Stroke: "#374151", Font: "#111827"},
			"utility":          {Fill: "#F3F4F6", Stroke: "#9CA3AF", Font: "#6B7280"},
			"network":          {Fill: "#FFFFFF", Stroke: "#9CA3AF", Font: "#374151"},
			"cloud":            {Fill: "#E5E7EB", Stroke: "#6B7280", Font: "#374151"},
			"vpn":              {Fill: "#D1D5DB", Stroke: "#4B5563", Font: "#1F2937"},
			"maintenance":      {Fill: "#E5E7EB", Stroke: "#6B7280", Font: "#374151"},
		},
	},
	"ocean": {
		Name: "ocean",
		Colors: map[string]ThemeColor{
			"media_servers":    {Fill: "#FEE2E2", Stroke: "#DC2626", Font: "#991B1B"},
			"media_management": {Fill: "#CFFAFE", Stroke: "#0891B2", Font: "#155E75"},
			"indexers":         {Fill: "#E0F2FE", Stroke: "#0284C7", Font: "#075985"},
			"download_clients": {Fill: "#DBEAFE", Stroke: "#2563EB", Font: "#1E40AF"},
			"requests":         {Fill: "#C7D2FE", Stroke: "#4F46E5", Font: "#3730A3"},
			"utility":          {Fill: "#F0F9FF", Stroke: "#38BDF8", Font: "#0369A1"},
			"network":          {Fill: "#F0F9FF", Stroke: "#7DD3FC", Font: "#0C4A6E"},
			"cloud":            {Fill: "#E0F2FE", Stroke: "#0EA5E9", Font: "#0C4A6E"},
			"vpn":              {Fill: "#C7D2FE", Stroke: "#6366F1", Font: "#3730A3"},
			"maintenance":      {Fill: "#DBEAFE", Stroke: "#3B82F6", Font: "#1E40AF"},
		},
	},
}

// ThemeNames returns all available theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetTheme returns the named theme or the default.
func GetTheme(name string) *Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["default"]
}

// ColorForCategory returns the theme color for a service category.
func (t *Theme) ColorForCategory(c model.Category) ThemeColor {
	if col, ok := t.Colors[string(c)]; ok {
		return col
	}
	return t.Colors["utility"]
}

// ColorForElement returns the theme color for a named element.
func (t *Theme) ColorForElement(name string) ThemeColor {
	if c, ok := t.Colors[name]; ok {
		return c
	}
	return ThemeColor{Fill: "#F9FAFB", Stroke: "#D1D5DB", Font: "#111827"}
}
