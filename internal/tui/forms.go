package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/validation"
)

type formField struct {
	key   string
	label string
	input textinput.Model
}

func field(key, label, placeholder string) formField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 0
	return formField{key: key, label: label, input: ti}
}

func secretField(key, label string) formField {
	f := field(key, label, "")
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

// form is a column of text inputs with one focused at a time.
type form struct {
	title  string
	fields []formField
	focus  int
	errs   []string
	busy   bool
}

func newForm(title string, fields ...formField) *form {
	f := &form{title: title, fields: fields}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	i = (i + len(f.fields)) % len(f.fields)
	for j := range f.fields {
		if j == i {
			f.fields[j].input.Focus()
		} else {
			f.fields[j].input.Blur()
		}
	}
	f.focus = i
}

func (f *form) next() { f.setFocus(f.focus + 1) }
func (f *form) prev() { f.setFocus(f.focus - 1) }

// last reports whether the focused field is the final one.
func (f *form) last() bool { return f.focus == len(f.fields)-1 }

func (f *form) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			return strings.TrimSpace(fl.input.Value())
		}
	}
	return ""
}

func (f *form) values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fl := range f.fields {
		out[fl.key] = fl.input.Value()
	}
	return out
}

func (f *form) setValues(values map[string]string) {
	for i := range f.fields {
		if v, ok := values[f.fields[i].key]; ok {
			f.fields[i].input.SetValue(v)
		}
	}
}

func (f *form) setWidth(width int) {
	for i := range f.fields {
		f.fields[i].input.Width = width
	}
}

// update forwards msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *form) view(width int, help string) string {
	rows := []string{TitleStyle.Render("› " + f.title), ""}
	for i, fl := range f.fields {
		label := renderMuted(fl.label)
		if i == f.focus {
			label = HeaderStyle.Render(fl.label)
		}
		rows = append(rows, label, renderInputFrame(fl.input.View(), i == f.focus, width))
	}
	if len(f.errs) > 0 {
		rows = append(rows, "")
		for _, e := range f.errs {
			rows = append(rows, ErrorMessageStyle.Render("✗ "+e))
		}
	}
	rows = append(rows, "", renderHelp(help))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func loginForm() *form {
	return newForm("log in",
		field("email", "Email", "you@example.com"),
		secretField("password", "Password"),
	)
}

func registerForm() *form {
	return newForm("create account",
		field("username", "Username", "letters and digits"),
		field("email", "Email", "you@example.com"),
		secretField("password", "Password"),
		secretField("confirm", "Confirm password"),
	)
}

// compose is a form that creates or edits one post.
type compose struct {
	*form
	kind    api.Kind
	editing string
	draftID string
}

func newCompose(kind api.Kind) *compose {
	var fields []formField
	switch kind {
	case api.KindBlog:
		fields = []formField{
			field("header", "Title", ""),
			field("body", "Text", ""),
		}
	case api.KindEvent:
		fields = []formField{
			field("title", "Title", ""),
			field("location", "Location", ""),
			field("start", "Starts", validation.DateLayout),
			field("end", "Ends", validation.DateLayout),
			field("description", "Description", ""),
		}
	default:
		kind = api.KindRecipe
		fields = []formField{
			field("header", "Title", ""),
			field("ingredients", "Ingredients", "200 g flour, 2 eggs, salt"),
			field("preparation", "Preparation time (min)", "30"),
			field("servings", "Servings", "4"),
			field("tags", "Tags", "comma separated"),
			field("body", "Instructions", ""),
		}
	}
	return &compose{form: newForm("new "+string(kind), fields...), kind: kind}
}

// editCompose prefills a compose form from an existing item.
func editCompose(r row) *compose {
	c := newCompose(r.kind)
	c.editing = r.id
	c.title = "edit " + string(c.kind)
	switch {
	case r.recipe != nil:
		ings := make([]string, len(r.recipe.Ingredients))
		for i, ing := range r.recipe.Ingredients {
			ings[i] = formatIngredient(ing)
		}
		c.setValues(map[string]string{
			"header":      r.recipe.Header,
			"ingredients": strings.Join(ings, ", "),
			"preparation": strconv.Itoa(r.recipe.PreparationTime),
			"servings":    strconv.Itoa(r.recipe.Servings),
			"tags":        strings.Join(r.recipe.Tags, ", "),
			"body":        r.recipe.BodyText,
		})
	case r.blog != nil:
		c.setValues(map[string]string{"header": r.blog.Header, "body": r.blog.BodyText})
	case r.event != nil:
		c.setValues(map[string]string{
			"title":       r.event.Title,
			"location":    r.event.Location,
			"start":       r.event.StartDate.Local().Format(validation.DateLayout),
			"end":         r.event.EndDate.Local().Format(validation.DateLayout),
			"description": r.event.Description,
		})
	}
	return c
}

// heading is the title used in status lines.
func (c *compose) heading() string {
	if c.kind == api.KindEvent {
		return c.value("title")
	}
	return c.value("header")
}

func (c *compose) recipe() (api.RecipeRequest, error) {
	ings, err := validation.ParseIngredients(c.value("ingredients"))
	if err != nil {
		return api.RecipeRequest{}, err
	}
	prep, err := validation.ParseInt("Preparation time", c.value("preparation"))
	if err != nil {
		return api.RecipeRequest{}, err
	}
	servings, err := validation.ParseInt("Servings", c.value("servings"))
	if err != nil {
		return api.RecipeRequest{}, err
	}
	form := validation.RecipeForm{
		Header:          c.value("header"),
		BodyText:        c.value("body"),
		Ingredients:     ings,
		PreparationTime: prep,
		Servings:        servings,
		Tags:            validation.ParseTags(c.value("tags")),
	}
	if err := validation.Struct(form); err != nil {
		return api.RecipeRequest{}, err
	}
	req := api.RecipeRequest{
		Header:          form.Header,
		BodyText:        form.BodyText,
		PreparationTime: form.PreparationTime,
		Servings:        form.Servings,
		Tags:            form.Tags,
	}
	for _, ing := range form.Ingredients {
		req.Ingredients = append(req.Ingredients, api.Ingredient{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit})
	}
	return req, nil
}

func (c *compose) blog() (api.BlogRequest, error) {
	form := validation.BlogForm{Header: c.value("header"), BodyText: c.value("body")}
	if err := validation.Struct(form); err != nil {
		return api.BlogRequest{}, err
	}
	return api.BlogRequest{Header: form.Header, BodyText: form.BodyText}, nil
}

func (c *compose) event() (api.EventRequest, error) {
	start, err := validation.ParseDate("Start", c.value("start"))
	if err != nil {
		return api.EventRequest{}, err
	}
	end, err := validation.ParseDate("End", c.value("end"))
	if err != nil {
		return api.EventRequest{}, err
	}
	form := validation.EventForm{
		Title:       c.value("title"),
		Description: c.value("description"),
		Location:    c.value("location"),
		StartDate:   start,
		EndDate:     end,
	}
	if err := validation.Struct(form); err != nil {
		return api.EventRequest{}, err
	}
	return api.EventRequest{
		Title:       form.Title,
		Description: form.Description,
		Location:    form.Location,
		StartDate:   form.StartDate,
		EndDate:     form.EndDate,
	}, nil
}
