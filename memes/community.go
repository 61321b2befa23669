package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"memeshare/internal/models"
	"memeshare/internal/views"
)

const (
	groupsUsage     = "usage: memes groups <list|show|create|join|leave|delete>"
	challengesUsage = "usage: memes challenges <list|show|create|join|delete>"
)

func cmdGroups(args []string) error {
	sub, rest, err := subcommand(args, groupsUsage)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return cmdGroupsList(rest)
	case "show":
		return cmdGroupsShow(rest)
	case "create":
		return cmdGroupsCreate(rest)
	case "join":
		return cmdGroupsMembership(rest, true)
	case "leave":
		return cmdGroupsMembership(rest, false)
	case "delete":
		return cmdGroupsDelete(rest)
	default:
		return errors.New(groupsUsage)
	}
}

func cmdGroupsList(args []string) error {
	fs := flag.NewFlagSet("groups list", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lf := addListFlags(fs)
	category := fs.String("category", "", "Only this category")
	a, _, err := openCommand(fs, g, args, 0, 0, "memes groups list [--page n] [--sort s] [--search s] [--category c]")
	if err != nil {
		return err
	}
	defer a.close()

	v := views.NewGroups(a.client, a.viewOptions(*lf.limit)...)
	env, err := loadList(context.Background(), v.List, lf, "groups", map[string]string{"category": *category})
	if err != nil {
		return err
	}
	return a.print(env)
}

func cmdGroupsShow(args []string) error {
	fs := flag.NewFlagSet("groups show", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes groups show <group-id>")
	if err != nil {
		return err
	}
	defer a.close()

	group, err := a.client.GetGroup(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(group)
}

func cmdGroupsCreate(args []string) error {
	fs := flag.NewFlagSet("groups create", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	category := fs.String("category", "", "Category: "+strings.Join(models.Categories, "|"))
	description := fs.String("description", "", "Description")
	private := fs.Bool("private", false, "Members only")
	a, pos, err := openCommand(fs, g, args, 0, 1, "memes groups create <name> --category c [--description d] [--private]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	in := models.GroupInput{
		Category:    strings.TrimSpace(*category),
		Description: strings.TrimSpace(*description),
		IsPrivate:   *private,
	}
	if len(pos) == 1 {
		in.Name = pos[0]
	}
	v := views.NewGroups(a.client, a.viewOptions(0)...)
	defer v.List.Close()
	group, err := v.Create(context.Background(), views.NewSubmitter(), in, nil)
	if err != nil {
		return err
	}
	return a.print(group)
}

func cmdGroupsMembership(args []string, join bool) error {
	name := "groups leave"
	if join {
		name = "groups join"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes "+name+" <group-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewGroups(a.client, a.viewOptions(0)...)
	ctx := context.Background()
	var group models.Group
	if join {
		group, err = v.Join(ctx, pos[0])
	} else {
		group, err = v.Leave(ctx, pos[0])
	}
	if err != nil {
		return err
	}
	return a.print(group)
}

func cmdGroupsDelete(args []string) error {
	fs := flag.NewFlagSet("groups delete", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes groups delete <group-id> [--yes]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.confirm("Delete group %s?", pos[0]); err != nil {
		return err
	}

	v := views.NewGroups(a.client, a.viewOptions(0)...)
	if err := v.Delete(context.Background(), pos[0]); err != nil {
		return err
	}
	fmt.Printf("deleted group %s\n", pos[0])
	return nil
}

func cmdChallenges(args []string) error {
	sub, rest, err := subcommand(args, challengesUsage)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return cmdChallengesList(rest)
	case "show":
		return cmdChallengesShow(rest)
	case "create":
		return cmdChallengesCreate(rest)
	case "join":
		return cmdChallengesJoin(rest)
	case "delete":
		return cmdChallengesDelete(rest)
	default:
		return errors.New(challengesUsage)
	}
}

func cmdChallengesList(args []string) error {
	fs := flag.NewFlagSet("challenges list", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lf := addListFlags(fs)
	category := fs.String("category", "", "Only this category")
	status := fs.String("status", "", "Only "+strings.Join(models.ChallengeStatuses, "|")+" challenges")
	a, _, err := openCommand(fs, g, args, 0, 0, "memes challenges list [--page n] [--sort s] [--search s] [--category c] [--status s]")
	if err != nil {
		return err
	}
	defer a.close()

	v := views.NewChallenges(a.client, a.viewOptions(*lf.limit)...)
	env, err := loadList(context.Background(), v.List, lf, "challenges", map[string]string{
		"category": *category,
		"status":   *status,
	})
	if err != nil {
		return err
	}
	return a.print(env)
}

func cmdChallengesShow(args []string) error {
	fs := flag.NewFlagSet("challenges show", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes challenges show <challenge-id>")
	if err != nil {
		return err
	}
	defer a.close()

	ch, err := a.client.GetChallenge(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(ch)
}

func cmdChallengesCreate(args []string) error {
	fs := flag.NewFlagSet("challenges create", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	title := fs.String("title", "", "Title")
	description := fs.String("description", "", "Description")
	category := fs.String("category", "", "Category: "+strings.Join(models.Categories, "|"))
	rules := fs.String("rules", "", "Rules")
	start := fs.String("start", "now", "Start: RFC3339, YYYY-MM-DD, a duration from now like 24h, or now")
	end := fs.String("end", "", "End: RFC3339, YYYY-MM-DD or a duration from now like 168h")
	a, _, err := openCommand(fs, g, args, 0, 0, "memes challenges create --title t --description d --category c [--start t] --end t [--rules r]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	now := time.Now().UTC()
	startAt, err := parseWhen(*start, now)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	endAt, err := parseWhen(*end, now)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}
	in := models.ChallengeInput{
		Title:       strings.TrimSpace(*title),
		Description: strings.TrimSpace(*description),
		Category:    strings.TrimSpace(*category),
		Rules:       strings.TrimSpace(*rules),
		StartDate:   startAt,
		EndDate:     endAt,
	}
	v := views.NewChallenges(a.client, a.viewOptions(0)...)
	defer v.List.Close()
	ch, err := v.Create(context.Background(), views.NewSubmitter(), in, nil)
	if err != nil {
		return err
	}
	return a.print(ch)
}

// parseWhen accepts RFC3339, a bare date, a duration from now or "now". An
// empty value yields the zero time, which validation rejects.
func parseWhen(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return time.Time{}, nil
	case strings.EqualFold(raw, "now"):
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return now.Add(d), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time or duration", raw)
}

func cmdChallengesJoin(args []string) error {
	fs := flag.NewFlagSet("challenges join", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes challenges join <challenge-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewChallenges(a.client, a.viewOptions(0)...)
	ch, err := v.Join(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(ch)
}

func cmdChallengesDelete(args []string) error {
	fs := flag.NewFlagSet("challenges delete", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes challenges delete <challenge-id> [--yes]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.confirm("Delete challenge %s?", pos[0]); err != nil {
		return err
	}

	v := views.NewChallenges(a.client, a.viewOptions(0)...)
	if err := v.Delete(context.Background(), pos[0]); err != nil {
		return err
	}
	fmt.Printf("deleted challenge %s\n", pos[0])
	return nil
}
