package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/charmbracelet/glamour"
	"github.com/morikuni/failure/v2"
	"github.com/pkg/browser"
	"github.com/travelwarn/travelwarn/api/snapshot"
)

// detailsMarkdown formats one snapshot entry as a markdown document.
// String details are gov.il HTML and get converted; anything else is shown as JSON.
func detailsMarkdown(code string, e snapshot.Entry) (string, error) {
	var sections []string

	sections = append(sections, fmt.Sprintf("# %s (%s)", e.EnglishName, e.HebrewName))

	level := "unknown"
	if e.WarningLevels != nil {
		level = *e.WarningLevels
	}
	sections = append(sections, fmt.Sprintf("**Code:** %s  \n**Warning level:** %s", code, level))

	if e.URL != nil && *e.URL != "" {
		sections = append(sections, fmt.Sprintf("**Advisory:** <%s>", *e.URL))
	}

	switch d := e.Details.(type) {
	case nil:
		sections = append(sections, "_No details published._")
	case string:
		converter := md.NewConverter("", true, nil)
		markdown, err := converter.ConvertString(d)
		if err != nil {
			return "", failure.Wrap(err)
		}
		sections = append(sections, markdown)
	default:
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return "", failure.Wrap(err)
		}
		sections = append(sections, "```json\n"+string(b)+"\n```")
	}

	return strings.Join(sections, "\n\n") + "\n", nil
}

// renderDetails renders the entry for the terminal, wrapped at width.
func renderDetails(code string, e snapshot.Entry, width int) (string, error) {
	doc, err := detailsMarkdown(code, e)
	if err != nil {
		return "", err
	}
	if width <= 0 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", failure.Wrap(err)
	}
	out, err := renderer.Render(doc)
	if err != nil {
		return "", failure.Wrap(err)
	}
	return out, nil
}

var openURL = browser.OpenURL

// openAdvisory opens the entry's advisory page in the default browser.
func openAdvisory(code string, e snapshot.Entry) error {
	if e.URL == nil || *e.URL == "" {
		return failure.New(NoDetailsURL,
			failure.Message("No advisory URL for "+code),
		)
	}
	return openURL(*e.URL)
}
