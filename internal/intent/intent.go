// Package intent classifies a free-text generation request into the
// pipeline branch and credit cost it carries.
package intent

import "regexp"

// Intent is the classified purpose of a user request.
type Intent string

const (
	Discussion Intent = "discussion"
	Image      Intent = "image"
	Video      Intent = "video"
	Code       Intent = "code"
)

// Credit costs per intent. Subject to the ledger's free-day and
// unlimited-entitlement overrides.
var costs = map[Intent]int{
	Discussion: 0,
	Code:       1,
	Image:      5,
	Video:      10,
}

// Cost returns the listed credit cost of the intent.
func (i Intent) Cost() int {
	return costs[i]
}

// Pattern matching is best-effort keyword detection, case-insensitive,
// covering Russian and English phrasings.
var (
	videoPattern = regexp.MustCompile(`(?i)генерир.*видео|создай.*видео|сними.*видео|видео|generate.*video|create.*video|make.*video|\bvideo\b`)
	imagePattern = regexp.MustCompile(`(?i)генерир.*изображ|создай.*изображ|нарисуй|изображение|generate.*image|create.*image|draw\b|\bimage\b|\bpicture\b`)

	refactorPattern  = regexp.MustCompile(`(?i)рефактор|улучш.*код|оптимизир|читабельн|производительн|refactor|improve.*code|optimi[sz]e`)
	testsPattern     = regexp.MustCompile(`(?i)добавь тесты|юнит.*тест|unit.*test|add.*tests`)
	translatePattern = regexp.MustCompile(`(?i)перевед.*на|конвертир.*в|react.*vue|vue.*react|convert.*to|translate.*to`)
	variantPattern   = regexp.MustCompile(`(?i)вариант|a/b|ab test|тест.*вариант|альтернатив|variant|alternative`)
)

// Classify maps request text to an Intent. Priority when several patterns
// match: Video > Image > discussion-mode flag > Code. Richer-media
// requests are taken as more specific than a generic code request.
func Classify(text string, discussionMode bool) Intent {
	switch {
	case videoPattern.MatchString(text):
		return Video
	case imagePattern.MatchString(text):
		return Image
	case discussionMode:
		return Discussion
	default:
		return Code
	}
}

// IsRefactorRequest reports a refactoring request; used to steer the code
// prompt, not the pipeline branch.
func IsRefactorRequest(text string) bool { return refactorPattern.MatchString(text) }

// IsTestsRequest reports a request to add unit tests.
func IsTestsRequest(text string) bool { return testsPattern.MatchString(text) }

// IsTranslateRequest reports a framework-translation request.
func IsTranslateRequest(text string) bool { return translatePattern.MatchString(text) }

// IsVariantRequest reports an A/B variant request. The committed artifact
// is then expected to hold two delimited variants; splitting them apart is
// a presentation concern.
func IsVariantRequest(text string) bool { return variantPattern.MatchString(text) }
