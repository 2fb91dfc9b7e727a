package config

// OutputFormat selects how compiled stylesheets are written.
type OutputFormat string

const (
	// FormatCSS writes plain CSS text.
	FormatCSS OutputFormat = "css"
	// FormatHTML writes a <style> element ready to be included into a page.
	FormatHTML OutputFormat = "html"
)

func (f OutputFormat) Ext() string {
	switch f {
	case FormatCSS:
		return ".css"
	case FormatHTML:
		return ".html"
	default:
		// this should never happen, configuration is validated
		panic("unsupported format requested")
	}
}
