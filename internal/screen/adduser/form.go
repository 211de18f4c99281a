package adduser

import (
	"slices"

	"mvi-users/internal/domain"
)

// form is the raw input accumulated from field intents.
type form struct {
	email     string
	firstName string
	lastName  string
	gender    domain.Gender
}

// initialForm is the form before any input.
func initialForm() form { return form{gender: domain.GenderMale} }

func (f form) apply(i Intent) form {
	switch i := i.(type) {
	case FieldChanged:
		switch i.Field {
		case FieldEmail:
			f.email = i.Value
		case FieldFirstName:
			f.firstName = i.Value
		case FieldLastName:
			f.lastName = i.Value
		}
	case GenderChanged:
		f.gender = i.Gender
	}
	return f
}

func (f form) validate() domain.Validated[domain.User] {
	return domain.NewUser(f.email, f.firstName, f.lastName, f.gender)
}

// errors returns the sorted validation errors of f, nil when it is valid.
func (f form) errors() []domain.ValidationError {
	errs, ok := f.validate().LeftValue()
	if !ok {
		return nil
	}
	out := errs.Slice()
	slices.Sort(out)
	return out
}

// step is the form after intent was applied to it.
type step struct {
	form   form
	intent Intent
}

func (st step) next(i Intent) step {
	return step{form: st.form.apply(i), intent: i}
}
