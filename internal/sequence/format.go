// Package sequence builds the human-readable codes printed on quotations and
// policies.
package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var randPadRe = regexp.MustCompile(`\{RAND(\d+)\}`)

const (
	QuotationTemplate = "{YYYY}-{MM}-OPC-{RAND8}"
	PolicyTemplate    = "{YYYY}-{MM}-POL-{RAND8}"
)

// Format renders template for the given time, taking {RANDn} characters from
// random. It is pure: same inputs, same code.
func Format(template string, at time.Time, random string) (string, error) {
	if template == "" {
		return "", fmt.Errorf("sequence template is empty")
	}

	out := template
	out = strings.ReplaceAll(out, "{YYYY}", at.Format("2006"))
	out = strings.ReplaceAll(out, "{MM}", at.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", at.Format("02"))

	var formatErr error
	out = randPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := randPadRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		if len(random) < width {
			formatErr = fmt.Errorf("random part too short: need %d, have %d", width, len(random))
			return m
		}
		return strings.ToUpper(random[:width])
	})
	if formatErr != nil {
		return "", formatErr
	}

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in sequence format: %s", out)
	}
	return out, nil
}

// New renders template with a fresh random suffix.
func New(template string, at time.Time) (string, error) {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return Format(template, at.UTC(), random)
}
