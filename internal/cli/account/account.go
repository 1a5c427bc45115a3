package account

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/prescripto/prescripto/internal/cli"
	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/notifier"
)

type LoginCmd struct {
	Email    string `help:"Account email." short:"e"`
	Password string `help:"Account password (prompted when omitted)." env:"PRESCRIPTO_PASSWORD"`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	if err := promptCredentials(nil, &c.Email, &c.Password); err != nil {
		return err
	}
	if err := ctx.State.Login(ctx.Context(), c.Email, c.Password); err != nil {
		return err
	}
	name := c.Email
	if p, ok := ctx.State.Profile(); ok && p.Name != "" {
		name = p.Name
	}
	ctx.Successf("Logged in as %s", name)
	return nil
}

type RegisterCmd struct {
	Name     string `help:"Full name." short:"n"`
	Email    string `help:"Account email." short:"e"`
	Password string `help:"Account password (prompted when omitted)." env:"PRESCRIPTO_PASSWORD"`
}

func (c *RegisterCmd) Run(ctx *cli.Context) error {
	if err := promptCredentials(&c.Name, &c.Email, &c.Password); err != nil {
		return err
	}
	if err := ctx.State.Register(ctx.Context(), c.Name, c.Email, c.Password); err != nil {
		return err
	}
	ctx.Successf("Account created for %s", c.Email)
	return nil
}

// promptCredentials asks for any field left empty. name may be nil for login.
func promptCredentials(name, email, password *string) error {
	var fields []huh.Field
	if name != nil && *name == "" {
		fields = append(fields, huh.NewInput().Title("Full Name").Value(name).Validate(notEmpty("name")))
	}
	if *email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(email).Validate(notEmpty("email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password).Validate(notEmpty("password")))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula()).Run()
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if err := ctx.State.Logout(); err != nil {
		return err
	}
	ctx.Successf("Logged out")
	return nil
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	if err := ctx.Start(); err != nil {
		return err
	}
	p, ok := ctx.State.Profile()
	if !ok {
		ctx.Warnf("Not logged in. Run 'prescripto login' first.")
		return apperr.ErrNotAuthenticated
	}

	ctx.Printf("%s\n", cli.Bold(p.Name))
	ctx.Println("CONTACT INFORMATION")
	ctx.Printf("  Email:    %s\n", p.Email)
	ctx.Printf("  Phone:    %s\n", valueOr(p.Phone))
	ctx.Printf("  Address:  %s\n", valueOr(strings.TrimSpace(p.Address.Line1+" "+p.Address.Line2)))
	ctx.Println("BASIC INFORMATION")
	ctx.Printf("  Gender:   %s\n", valueOr(p.Gender))
	ctx.Printf("  Birthday: %s\n", valueOr(p.DOB))
	if p.Image != "" {
		ctx.Printf("  Image:    %s\n", p.Image)
	}
	return nil
}

func valueOr(s string) string {
	if s == "" {
		return cli.Muted("-")
	}
	return s
}

type ProfileUpdateCmd struct {
	Name         *string `help:"Full name."`
	Phone        *string `help:"Phone number."`
	AddressLine1 *string `help:"First address line."`
	AddressLine2 *string `help:"Second address line."`
	Gender       *string `help:"Gender (Not Selected, Male, Female)."`
	DOB          *string `help:"Date of birth (YYYY-MM-DD)." name:"dob"`
}

func (c *ProfileUpdateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Start(); err != nil {
		return err
	}
	p, ok := ctx.State.Profile()
	if !ok {
		ctx.Warnf("Not logged in. Run 'prescripto login' first.")
		return apperr.ErrNotAuthenticated
	}

	updated := false
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
			updated = true
		}
	}
	set(&p.Name, c.Name)
	set(&p.Phone, c.Phone)
	set(&p.Address.Line1, c.AddressLine1)
	set(&p.Address.Line2, c.AddressLine2)
	set(&p.Gender, c.Gender)
	set(&p.DOB, c.DOB)

	if !updated {
		ctx.Println("No changes specified. Use flags such as --phone to update the profile.")
		return nil
	}
	if c.Gender != nil && !validGender(*c.Gender) {
		return fmt.Errorf("invalid gender %q (choose from: %s)", *c.Gender, strings.Join(constants.Genders, ", "))
	}
	if c.DOB != nil {
		if _, err := time.Parse(constants.DateFormat, *c.DOB); err != nil {
			return fmt.Errorf("invalid date of birth %q: use YYYY-MM-DD", *c.DOB)
		}
	}

	if err := ctx.State.UpdateProfile(ctx.Context(), p); err != nil {
		return err
	}
	ctx.Successf("Profile Updated")
	ctx.Notify(notifier.LevelSuccess, "Profile Updated")
	return nil
}

func validGender(g string) bool {
	for _, known := range constants.Genders {
		if known == g {
			return true
		}
	}
	return false
}

type ProfileUploadCmd struct {
	Path string `arg:"" help:"Image file to upload." type:"existingfile"`
}

func (c *ProfileUploadCmd) Run(ctx *cli.Context) error {
	if err := ctx.Start(); err != nil {
		return err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warn("failed to close image", "path", c.Path, "error", cerr)
		}
	}()

	url, err := ctx.State.UploadProfileImage(ctx.Context(), filepath.Base(c.Path), f)
	if err != nil {
		if errors.Is(err, apperr.ErrNotAuthenticated) {
			ctx.Warnf("Not logged in. Run 'prescripto login' first.")
		}
		return err
	}
	ctx.Successf("Profile image updated: %s", url)
	return nil
}
