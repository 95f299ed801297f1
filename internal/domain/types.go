package domain

type UserID string
type PlotID string
type MessageID string

type Role string

const (
	RoleFarmer  Role = "farmer"
	RoleAdvisor Role = "advisor"
)

// Language is the farmer's preferred reply language.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageHindi     Language = "hi"
	LanguageMalayalam Language = "ml"
)

// DisplayName returns the English name of the language, as used inside
// model instructions. Unknown codes fall back to English.
func (l Language) DisplayName() string {
	switch l {
	case LanguageHindi:
		return "Hindi"
	case LanguageMalayalam:
		return "Malayalam"
	default:
		return "English"
	}
}

// SpeechTag returns the BCP-47 tag used for recognition and synthesis.
func (l Language) SpeechTag() string {
	switch l {
	case LanguageHindi:
		return "hi-IN"
	case LanguageMalayalam:
		return "ml-IN"
	default:
		return "en-IN"
	}
}
