package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type RegisterForm struct {
	Username string `validate:"required,min=3,max=30,alphanum"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
	Confirm  string `label:"Password confirmation" validate:"required,eqfield=Password"`
}

// IngredientLine is one parsed "quantity unit name" line of a recipe form.
type IngredientLine struct {
	Name     string  `validate:"required,max=100"`
	Quantity float64 `validate:"gte=0"`
	Unit     string  `validate:"max=20"`
}

type RecipeForm struct {
	Header          string           `label:"Title" validate:"required,max=120"`
	BodyText        string           `label:"Instructions" validate:"required"`
	Ingredients     []IngredientLine `validate:"required,min=1,dive"`
	PreparationTime int              `label:"Preparation time" validate:"gte=1,lte=1440"`
	Servings        int              `validate:"gte=1,lte=100"`
	Tags            []string         `validate:"max=10,dive,max=30"`
}

type BlogForm struct {
	Header   string `label:"Title" validate:"required,max=120"`
	BodyText string `label:"Text" validate:"required,min=10"`
}

type EventForm struct {
	Title       string    `validate:"required,max=120"`
	Description string    `validate:"required"`
	Location    string    `validate:"required,max=200"`
	StartDate   time.Time `label:"Start" validate:"required"`
	EndDate     time.Time `label:"End" validate:"required,gtfield=StartDate"`
}

// DateLayout is the format date fields are typed in.
const DateLayout = "2006-01-02 15:04"

// ParseIngredients reads one ingredient per comma- or newline-separated
// entry. An entry starting with a number uses it as the quantity; the next
// word is the unit when three or more words are present.
func ParseIngredients(text string) ([]IngredientLine, error) {
	var out []IngredientLine
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' }) {
		words := strings.Fields(raw)
		if len(words) == 0 {
			continue
		}
		line := IngredientLine{Quantity: 1}
		if q, err := strconv.ParseFloat(words[0], 64); err == nil {
			line.Quantity = q
			words = words[1:]
			if len(words) >= 2 {
				line.Unit = words[0]
				words = words[1:]
			}
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("ingredient %q has no name", strings.TrimSpace(raw))
		}
		line.Name = strings.Join(words, " ")
		out = append(out, line)
	}
	return out, nil
}

// ParseTags splits a comma-separated tag list, dropping blanks.
func ParseTags(text string) []string {
	var tags []string
	for _, t := range strings.Split(text, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ParseInt parses a whole-number field, naming it in the error.
func ParseInt(label, text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", label)
	}
	return n, nil
}

// ParseDate parses a DateLayout field in the local time zone.
func ParseDate(label, text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, text, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must look like %s", label, DateLayout)
	}
	return t, nil
}
