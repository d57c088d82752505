package risk

import "strings"

// Category groups free-form activity labels for display.
type Category string

const (
	CategoryLogin    Category = "login"
	CategoryLogout   Category = "logout"
	CategoryDownload Category = "download"
	CategoryUpload   Category = "upload"
	CategoryDelete   Category = "delete"
	CategoryModify   Category = "modify"
	CategoryAccess   Category = "access"
	CategoryOther    Category = "other"
)

// First matching keyword wins.
var categoryKeywords = []Category{
	CategoryLogin,
	CategoryLogout,
	CategoryDownload,
	CategoryUpload,
	CategoryDelete,
	CategoryModify,
	CategoryAccess,
}

// ClassifyAction maps an activity label like "FILE_DOWNLOAD" to a category.
func ClassifyAction(action string) Category {
	lower := strings.ToLower(action)
	for _, c := range categoryKeywords {
		if strings.Contains(lower, string(c)) {
			return c
		}
	}
	return CategoryOther
}

func (c Category) Color() string {
	switch c {
	case CategoryLogin, CategoryLogout:
		return "info"
	case CategoryDownload, CategoryAccess:
		return "success"
	case CategoryUpload, CategoryModify:
		return "warning"
	case CategoryDelete:
		return "danger"
	default:
		return "default"
	}
}

func (c Category) Icon() string {
	switch c {
	case CategoryLogin:
		return "🔐"
	case CategoryLogout:
		return "🚪"
	case CategoryDownload:
		return "⬇️"
	case CategoryUpload:
		return "⬆️"
	case CategoryDelete:
		return "🗑️"
	case CategoryModify:
		return "✏️"
	case CategoryAccess:
		return "🔍"
	default:
		return "📝"
	}
}
