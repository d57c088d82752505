package handlers

import "io"

// TemplateExecutor renders a page (users.html) or an HTMX fragment
// (users_table.html) by file name.
type TemplateExecutor interface {
	ExecuteTemplate(wr io.Writer, name string, data interface{}) error
}
