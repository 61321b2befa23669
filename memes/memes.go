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

const memesUsage = "usage: memes memes <list|show|create|like|delete>"

func cmdMemes(args []string) error {
	sub, rest, err := subcommand(args, memesUsage)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return cmdMemesList(rest)
	case "show":
		return cmdMemesShow(rest)
	case "create":
		return cmdMemesCreate(rest)
	case "like":
		return cmdMemesLike(rest)
	case "delete":
		return cmdMemesDelete(rest)
	default:
		return errors.New(memesUsage)
	}
}

func cmdMemesList(args []string) error {
	fs := flag.NewFlagSet("memes list", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lf := addListFlags(fs)
	owner := fs.String("owner", "", "Only memes by this user id")
	a, _, err := openCommand(fs, g, args, 0, 0, "memes memes list [--page n] [--sort s] [--search s] [--owner id]")
	if err != nil {
		return err
	}
	defer a.close()

	v := views.NewMemes(a.client, a.viewOptions(*lf.limit)...)
	env, err := loadList(context.Background(), v.List, lf, "memes", map[string]string{"owner": *owner})
	if err != nil {
		return err
	}
	return a.print(env)
}

func cmdMemesShow(args []string) error {
	fs := flag.NewFlagSet("memes show", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes memes show <meme-id>")
	if err != nil {
		return err
	}
	defer a.close()

	meme, err := a.client.GetMeme(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(meme)
}

func cmdMemesCreate(args []string) error {
	fs := flag.NewFlagSet("memes create", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	title := fs.String("title", "", "Meme title")
	imageURL := fs.String("image-url", "", "Image URL")
	a, _, err := openCommand(fs, g, args, 0, 0, "memes memes create --title t --image-url url")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewMemes(a.client, a.viewOptions(0)...)
	meme, err := v.Create(context.Background(), views.NewSubmitter(), models.MemeInput{
		Title:    strings.TrimSpace(*title),
		ImageURL: strings.TrimSpace(*imageURL),
	}, nil)
	if err != nil {
		return err
	}
	return a.print(meme)
}

func cmdMemesLike(args []string) error {
	fs := flag.NewFlagSet("memes like", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes memes like <meme-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewMemes(a.client, a.viewOptions(0)...)
	meme, err := v.Like(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(meme)
}

func cmdMemesDelete(args []string) error {
	fs := flag.NewFlagSet("memes delete", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes memes delete <meme-id> [--yes]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.confirm("Delete meme %s?", pos[0]); err != nil {
		return err
	}

	v := views.NewMemes(a.client, a.viewOptions(0)...)
	if err := v.Delete(context.Background(), pos[0]); err != nil {
		return err
	}
	fmt.Printf("deleted meme %s\n", pos[0])
	return nil
}
