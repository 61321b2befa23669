package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"memeshare/internal/models"
	"memeshare/internal/views"
)

const collaborationsUsage = "usage: memes collaborations <list|show|create|invites|accept|decline|publish|status|delete>"

func cmdCollaborations(args []string) error {
	sub, rest, err := subcommand(args, collaborationsUsage)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return cmdCollaborationsList(rest)
	case "show":
		return cmdCollaborationsShow(rest)
	case "create":
		return cmdCollaborationsCreate(rest)
	case "invites":
		return cmdCollaborationsInvites(rest)
	case "accept":
		return cmdCollaborationsAnswer(rest, true)
	case "decline":
		return cmdCollaborationsAnswer(rest, false)
	case "publish":
		return cmdCollaborationsPublish(rest)
	case "status":
		return cmdCollaborationsStatus(rest)
	case "delete":
		return cmdCollaborationsDelete(rest)
	default:
		return errors.New(collaborationsUsage)
	}
}

func cmdCollaborationsList(args []string) error {
	fs := flag.NewFlagSet("collaborations list", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lf := addListFlags(fs)
	kind := fs.String("type", "", "Only this type: "+strings.Join(models.CollaborationTypes, "|"))
	status := fs.String("status", "", "Only this status")
	a, _, err := openCommand(fs, g, args, 0, 0, "memes collaborations list [--page n] [--sort s] [--search s] [--type t] [--status s]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if s := strings.TrimSpace(*status); s != "" {
		if _, err := models.ParseCollaborationStatus(s); err != nil {
			return err
		}
	}

	v := views.NewCollaborations(a.client, a.viewOptions(*lf.limit)...)
	env, err := loadList(context.Background(), v.List, lf, "collaborations", map[string]string{
		"type":   *kind,
		"status": strings.ToLower(*status),
	})
	if err != nil {
		return err
	}
	return a.print(env)
}

func cmdCollaborationsShow(args []string) error {
	fs := flag.NewFlagSet("collaborations show", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes collaborations show <collaboration-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	c, err := a.client.GetCollaboration(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(c)
}

func cmdCollaborationsCreate(args []string) error {
	fs := flag.NewFlagSet("collaborations create", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	title := fs.String("title", "", "Title")
	description := fs.String("description", "", "Description")
	kind := fs.String("type", "", "Type: "+strings.Join(models.CollaborationTypes, "|"))
	public := fs.Bool("public", false, "Visible to everyone")
	var invites multiStringFlag
	fs.Var(&invites, "invite", "Invite username:role, role editor or viewer (repeatable or comma-separated)")
	a, _, err := openCommand(fs, g, args, 0, 0, "memes collaborations create --title t --type meme|template|challenge [--public] [--invite user:role]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	in := models.CollaborationInput{
		Title:       strings.TrimSpace(*title),
		Description: strings.TrimSpace(*description),
		Type:        strings.TrimSpace(*kind),
		IsPublic:    *public,
	}
	for _, raw := range parseCSVUnique(invites.values) {
		username, role, ok := strings.Cut(raw, ":")
		if !ok {
			role = models.RoleViewer
		}
		in.Invites = append(in.Invites, models.InviteInput{Username: strings.TrimSpace(username), Role: strings.TrimSpace(role)})
	}

	v := views.NewCollaborations(a.client, a.viewOptions(0)...)
	defer v.List.Close()
	c, err := v.Create(context.Background(), views.NewSubmitter(), in, nil)
	if err != nil {
		return err
	}
	return a.print(c)
}

func cmdCollaborationsInvites(args []string) error {
	fs := flag.NewFlagSet("collaborations invites", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, _, err := openCommand(fs, g, args, 0, 0, "memes collaborations invites")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewCollaborations(a.client, a.viewOptions(0)...)
	if err := v.LoadInvites(context.Background()); err != nil {
		return err
	}
	return a.print(map[string]any{"invites": v.Invites()})
}

func cmdCollaborationsAnswer(args []string, accept bool) error {
	name := "collaborations decline"
	if accept {
		name = "collaborations accept"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes "+name+" <collaboration-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewCollaborations(a.client, a.viewOptions(0)...)
	defer v.List.Close()
	ctx := context.Background()
	if accept {
		err = v.AcceptInvite(ctx, pos[0])
	} else {
		err = v.DeclineInvite(ctx, pos[0])
	}
	if err != nil {
		return err
	}
	verb := "declined"
	if accept {
		verb = "accepted"
	}
	fmt.Printf("%s invite to %s (%d pending)\n", verb, pos[0], len(v.Invites()))
	return nil
}

func cmdCollaborationsPublish(args []string) error {
	fs := flag.NewFlagSet("collaborations publish", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes collaborations publish <collaboration-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewCollaborations(a.client, a.viewOptions(0)...)
	c, err := v.Publish(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(c)
}

func cmdCollaborationsStatus(args []string) error {
	fs := flag.NewFlagSet("collaborations status", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, 2, "memes collaborations status <collaboration-id> <draft|active|reviewing|completed>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	to, err := models.ParseCollaborationStatus(pos[1])
	if err != nil {
		return err
	}

	v := views.NewCollaborations(a.client, a.viewOptions(0)...)
	c, err := v.Transition(context.Background(), pos[0], to)
	if err != nil {
		return err
	}
	return a.print(c)
}

func cmdCollaborationsDelete(args []string) error {
	fs := flag.NewFlagSet("collaborations delete", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes collaborations delete <collaboration-id> [--yes]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.confirm("Delete collaboration %s?", pos[0]); err != nil {
		return err
	}

	v := views.NewCollaborations(a.client, a.viewOptions(0)...)
	if err := v.Delete(context.Background(), pos[0]); err != nil {
		return err
	}
	fmt.Printf("deleted collaboration %s\n", pos[0])
	return nil
}
