package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"memeshare/internal/models"
)

const envPassword = "MEMESHARE_PASSWORD"

func passwordFrom(flagValue string) (string, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(envPassword)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("missing --password (or set %s)", envPassword)
}

func cmdRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	password := fs.String("password", "", "Account password")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 2 {
		return errors.New("usage: memes register <username> <email> [--password p]")
	}
	pw, err := passwordFrom(*password)
	if err != nil {
		return err
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	res, err := a.client.Register(ctx, models.RegisterInput{
		Username: strings.TrimSpace(positionals[0]),
		Email:    strings.TrimSpace(positionals[1]),
		Password: pw,
	})
	if err != nil {
		return err
	}
	a.rememberServer()
	if err := a.session.Begin(res.Token, &res.User); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Printf("registered and logged in as %s\n", res.User.Username)
	return nil
}

func cmdLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	password := fs.String("password", "", "Account password")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return errors.New("usage: memes login <email> [--password p]")
	}
	pw, err := passwordFrom(*password)
	if err != nil {
		return err
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.client.Login(context.Background(), models.LoginInput{
		Email:    strings.TrimSpace(positionals[0]),
		Password: pw,
	})
	if err != nil {
		return err
	}
	a.rememberServer()
	if err := a.session.Begin(res.Token, &res.User); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Printf("logged in as %s\n", res.User.Username)
	return nil
}

func cmdLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.session.Authenticated() {
		fmt.Println("not logged in")
		return nil
	}
	if err := a.session.Clear(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func cmdWhoAmI(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	user, err := a.client.Me(context.Background())
	if err != nil {
		return err
	}
	return a.print(user)
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	status, err := a.client.Status(context.Background())
	if err != nil {
		return err
	}
	out := map[string]any{
		"server": a.client.BaseURL(),
		"status": status,
	}
	if u := a.session.User(); u != nil {
		out["user"] = u.Username
	}
	if srv, ok := a.cfg.Default(); ok && srv.LoggedInAt != "" {
		out["logged_in_at"] = srv.LoggedInAt
	}
	return printJSON(out)
}
