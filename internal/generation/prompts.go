package generation

import (
	"fmt"
	"strings"

	"github.com/daveai/backend/internal/intent"
)

// Prompt builders. The provider treats these as opaque text; only their
// structure (context blocks, instruction blocks) matters here.

var complexityInstructions = map[string]string{
	"simple":   "Write simple code with basic functionality.",
	"standard": "Write quality code with good design and animations.",
	"advanced": "Write advanced code with maximum interactivity and effects.",
}

var fileTypeInstructions = map[string]string{
	"html":       "Return a COMPLETE page with HTML, CSS and JavaScript. Produce a coherent, ready-to-use web page.",
	"json":       "Return valid JSON.",
	"python":     "Return a Python script.",
	"javascript": "Return ES6+ JavaScript.",
	"css":        "Return CSS with animations.",
	"react":      "Return a React component.",
	"vue":        "Return a Vue component.",
}

const seoInstructions = `SEO REQUIREMENTS:
- Use semantic HTML5 tags: <header>, <nav>, <main>, <article>, <section>, <aside>, <footer>
- Add meta tags: description, keywords, Open Graph and Twitter Card tags
- Every image must carry a descriptive alt attribute
- Keep a proper heading hierarchy (H1 -> H2 -> H3) and a descriptive <title>
- Add Schema.org structured data (JSON-LD) where appropriate
- Use aria-label on interactive elements`

const responsiveInstructions = `The code must be responsive on all devices: use media queries, relative units (%, em, rem) and flexible layouts.`

// VariantDelimiterA and VariantDelimiterB separate the two artifacts of an
// A/B request inside one committed document. Splitting them apart is a
// presentation concern downstream.
const (
	VariantDelimiterA = "=== VARIANT A ==="
	VariantDelimiterB = "=== VARIANT B ==="
)

func planPrompt(request string) string {
	return fmt.Sprintf("Draft a short plan for: %s. Answer in 2-3 sentences describing what you will do.", request)
}

func discussionPrompt(request string) string {
	return "You are Dave AI, a developer assistant. Answer the user's question and help with planning and discussion.\n\nQuestion: " + request
}

func videoPrompt(request string) string {
	return fmt.Sprintf(`You are an AI film director. Produce a detailed prompt for generating a LONG, HIGH-QUALITY video (60+ seconds) from this request: %q

PROMPT STRUCTURE:
1. CORE CONCEPT (2-3 sentences)
2. VISUAL STYLE: cinematography, colour palette, lighting
3. SCENES BY TIMECODE:
   0:00-0:10 - first scene, camera movement
   0:10-0:25 - second scene with a smooth transition
   0:25-0:40 - third scene, climax
   0:40-1:00 - final scene, resolution
4. TECHNICAL DETAILS: 4K, 60fps, cinematic color grading
5. MUSIC/SOUND: atmosphere and soundtrack
6. EMOTIONAL TONE

Make the prompt as detailed as possible for a top video model.`, request)
}

func videoMessage(plan string) string {
	return "VIDEO GENERATION PROMPT READY\n\n" + plan +
		"\n\nUse this prompt in Runway Gen-3 Alpha, Kling AI 1.5 or Pika 2.0.\nDuration: 60+ seconds | Quality: 4K | Style: Cinematic"
}

func codePrompt(turn Turn, priorCode string) string {
	var b strings.Builder

	if instruction, ok := complexityInstructions[turn.Complexity]; ok {
		b.WriteString(instruction)
	} else {
		b.WriteString(complexityInstructions["standard"])
	}
	b.WriteString("\n")
	if instruction, ok := fileTypeInstructions[turn.FileType]; ok {
		b.WriteString(instruction)
	} else {
		b.WriteString(fileTypeInstructions["html"])
	}

	switch {
	case intent.IsRefactorRequest(turn.Request):
		b.WriteString("\n\nTask: refactor the code. Improve readability and performance, add comments where necessary, optimize the structure.")
	case intent.IsTestsRequest(turn.Request):
		b.WriteString("\n\nTask: add unit tests covering the key functions and their edge cases.")
	case intent.IsTranslateRequest(turn.Request):
		b.WriteString("\n\nTask: translate between frameworks. Preserve all functionality, adapt to the target framework's syntax.")
	}

	b.WriteString("\n")
	b.WriteString(seoInstructions)
	b.WriteString("\n\n")
	b.WriteString(responsiveInstructions)

	if intent.IsVariantRequest(turn.Request) {
		fmt.Fprintf(&b, "\n\nA/B TESTING: produce TWO page variants with different design/structure approaches, separated by the comments %q and %q. The variants must test different hypotheses (CTA, colour scheme, element placement).",
			VariantDelimiterA, VariantDelimiterB)
	}

	b.WriteString("\n\nRequest: ")
	b.WriteString(turn.Request)
	if priorCode != "" {
		b.WriteString("\n\nCurrent code:\n")
		b.WriteString(priorCode)
		b.WriteString("\n\nContinue, improve or extend this code.")
	}
	b.WriteString("\n\nNo explanations, only code.")
	return b.String()
}

// ProjectNamePrompt asks the provider for a short project name derived
// from the first request.
func ProjectNamePrompt(description string) string {
	return fmt.Sprintf("Produce a short project name (2-4 words) from this description: %q. Return ONLY the name, no quotes, no extra text.", description)
}
