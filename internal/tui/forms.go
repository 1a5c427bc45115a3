package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/models"
)

type LoginFormModel struct {
	Register bool
	Name     string
	Email    string
	Password string
}

type ProfileFormModel struct {
	Name      string
	Phone     string
	Line1     string
	Line2     string
	Gender    string
	DOB       string
	ImagePath string
}

type ConfirmFormModel struct {
	Confirmed bool
}

func profileForm(p models.UserProfile) *ProfileFormModel {
	gender := p.Gender
	if gender == "" {
		gender = constants.Genders[0]
	}
	return &ProfileFormModel{
		Name:   p.Name,
		Phone:  p.Phone,
		Line1:  p.Address.Line1,
		Line2:  p.Address.Line2,
		Gender: gender,
		DOB:    p.DOB,
	}
}

// Apply copies the edited fields onto p.
func (fm *ProfileFormModel) Apply(p models.UserProfile) models.UserProfile {
	p.Name = strings.TrimSpace(fm.Name)
	p.Phone = strings.TrimSpace(fm.Phone)
	p.Address.Line1 = strings.TrimSpace(fm.Line1)
	p.Address.Line2 = strings.TrimSpace(fm.Line2)
	p.Gender = fm.Gender
	p.DOB = strings.TrimSpace(fm.DOB)
	return p
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}

// NewLoginForm asks whether to log in or sign up, then for the credentials.
func NewLoginForm(fm *LoginFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[bool]().
				Title("Account").
				Options(
					huh.NewOption("Login", false),
					huh.NewOption("Create Account", true),
				).
				Value(&fm.Register),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Full Name").
				Value(&fm.Name).
				Validate(notEmpty("name")),
		).WithHideFunc(func() bool { return !fm.Register }),
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&fm.Email).
				Validate(notEmpty("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fm.Password).
				Validate(notEmpty("password")),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewProfileForm edits the profile fields. An image path, when given,
// is uploaded after the fields are saved.
func NewProfileForm(fm *ProfileFormModel) *huh.Form {
	genders := make([]huh.Option[string], 0, len(constants.Genders))
	for _, g := range constants.Genders {
		genders = append(genders, huh.NewOption(g, g))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(notEmpty("name")),
			huh.NewInput().
				Title("Phone").
				Value(&fm.Phone),
			huh.NewInput().
				Title("Address line 1").
				Value(&fm.Line1),
			huh.NewInput().
				Title("Address line 2").
				Value(&fm.Line2),
			huh.NewSelect[string]().
				Title("Gender").
				Options(genders...).
				Value(&fm.Gender),
			huh.NewInput().
				Title("Birthday (YYYY-MM-DD)").
				Value(&fm.DOB).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := time.Parse(constants.DateFormat, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("invalid date, use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewInput().
				Title("Profile image").
				Description("Path to an image file, leave empty to keep the current one").
				Value(&fm.ImagePath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					info, err := os.Stat(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("cannot read file: %w", err)
					}
					if info.IsDir() {
						return fmt.Errorf("%s is a directory", s)
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

func NewConfirmForm(fm *ConfirmFormModel, title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&fm.Confirmed),
		),
	).WithTheme(huh.ThemeDracula())
}
