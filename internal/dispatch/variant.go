package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/raysh454/formfetch/internal/webclient"
)

var (
	// ErrInvalidJSON wraps a syntax error in the data field.
	ErrInvalidJSON = errors.New("invalid JSON data")

	ErrUnknownVariant = errors.New("unknown variant")
)

// Variant decides which methods carry a body and how a response is rendered.
type Variant struct {
	Name        string
	BodyMethods []string
	Render      func(resp *webclient.Response) (string, error)
}

var (
	// VariantJSON sends bodies with POST and PUT and pretty-prints JSON
	// responses with a one-space indent.
	VariantJSON = Variant{
		Name:        "json",
		BodyMethods: []string{http.MethodPost, http.MethodPut},
		Render:      renderJSON,
	}

	// VariantText sends bodies with POST only and shows responses verbatim.
	VariantText = Variant{
		Name:        "text",
		BodyMethods: []string{http.MethodPost},
		Render:      renderText,
	}
)

// ParseVariant accepts "json"/"a" and "text"/"b".
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json", "a":
		return VariantJSON, nil
	case "text", "b":
		return VariantText, nil
	default:
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
}

// BearsBody reports whether method attaches the data field as a body.
func (v Variant) BearsBody(method string) bool {
	return slices.Contains(v.BodyMethods, normalizeMethod(method))
}

func (v Variant) String() string {
	return v.Name
}

func renderJSON(resp *webclient.Response) (string, error) {
	out, err := formatJSON(resp.Body, " ")
	if err != nil {
		return "", fmt.Errorf("decode response body: %w", err)
	}
	return string(out), nil
}

func renderText(resp *webclient.Response) (string, error) {
	return string(resp.Body), nil
}
