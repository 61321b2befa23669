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

const foldersUsage = "usage: memes folders <list|show|create|update|add|remove|available|delete>"

func cmdFolders(args []string) error {
	sub, rest, err := subcommand(args, foldersUsage)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return cmdFoldersList(rest)
	case "show":
		return cmdFoldersShow(rest)
	case "create":
		return cmdFoldersCreate(rest)
	case "update":
		return cmdFoldersUpdate(rest)
	case "add":
		return cmdFoldersAdd(rest)
	case "remove":
		return cmdFoldersRemove(rest)
	case "available":
		return cmdFoldersAvailable(rest)
	case "delete":
		return cmdFoldersDelete(rest)
	default:
		return errors.New(foldersUsage)
	}
}

func cmdFoldersList(args []string) error {
	fs := flag.NewFlagSet("folders list", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lf := addListFlags(fs)
	a, _, err := openCommand(fs, g, args, 0, 0, "memes folders list [--page n] [--sort s] [--search s]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewFolders(a.client, a.viewOptions(*lf.limit)...)
	env, err := loadList(context.Background(), v.List, lf, "folders", nil)
	if err != nil {
		return err
	}
	return a.print(env)
}

func cmdFoldersShow(args []string) error {
	fs := flag.NewFlagSet("folders show", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes folders show <folder-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	d := views.NewFolderDetail(a.client, pos[0], views.WithLogger(a.logger))
	if err := d.Load(context.Background()); err != nil {
		return err
	}
	folder := d.Folder()
	switch strings.ToLower(a.format()) {
	case "table", "plain", "md":
		memes := folder.Memes
		if memes == nil {
			memes = []models.Meme{}
		}
		return a.print(map[string]any{"memes": memes})
	}
	return a.print(folder)
}

func cmdFoldersCreate(args []string) error {
	fs := flag.NewFlagSet("folders create", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	color := fs.String("color", "", "Hex color like #ff8800")
	icon := fs.String("icon", "", "Icon name")
	description := fs.String("description", "", "Description")
	private := fs.Bool("private", false, "Only visible to you")
	a, pos, err := openCommand(fs, g, args, 0, 1, "memes folders create <name> [--color #hex] [--icon i] [--description d] [--private]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	in := models.FolderInput{
		Color:       strings.TrimSpace(*color),
		Icon:        strings.TrimSpace(*icon),
		Description: strings.TrimSpace(*description),
		IsPrivate:   *private,
	}
	if len(pos) == 1 {
		in.Name = pos[0]
	}
	v := views.NewFolders(a.client, a.viewOptions(0)...)
	folder, err := v.Create(context.Background(), views.NewSubmitter(), in, nil)
	if err != nil {
		return err
	}
	return a.print(folder)
}

func cmdFoldersUpdate(args []string) error {
	fs := flag.NewFlagSet("folders update", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	name := fs.String("name", "", "New name")
	color := fs.String("color", "", "Hex color like #ff8800")
	icon := fs.String("icon", "", "Icon name")
	description := fs.String("description", "", "Description")
	private := fs.Bool("private", false, "Only visible to you")
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes folders update <folder-id> [--name n] [--color #hex] [--icon i] [--description d] [--private=true|false]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	var upd models.FolderUpdate
	set := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.Name, set = name, true
		case "color":
			upd.Color, set = color, true
		case "icon":
			upd.Icon, set = icon, true
		case "description":
			upd.Description, set = description, true
		case "private":
			upd.IsPrivate, set = private, true
		}
	})
	if !set {
		return errors.New("nothing to update")
	}
	v := views.NewFolders(a.client, a.viewOptions(0)...)
	folder, err := v.Update(context.Background(), pos[0], upd)
	if err != nil {
		return err
	}
	return a.print(folder)
}

func cmdFoldersAdd(args []string) error {
	fs := flag.NewFlagSet("folders add", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, -1, "memes folders add <folder-id> <meme-id>...")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	d := views.NewFolderDetail(a.client, pos[0], views.WithLogger(a.logger))
	if err := d.AddMemes(context.Background(), parseCSVUnique(pos[1:])); err != nil {
		return err
	}
	folder := d.Folder()
	fmt.Printf("folder %s now holds %d memes\n", folder.Name, folder.MemeCount)
	return nil
}

func cmdFoldersRemove(args []string) error {
	fs := flag.NewFlagSet("folders remove", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, 2, "memes folders remove <folder-id> <meme-id> [--yes]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.confirm("Remove meme %s from folder %s?", pos[1], pos[0]); err != nil {
		return err
	}

	ctx := context.Background()
	d := views.NewFolderDetail(a.client, pos[0], views.WithLogger(a.logger))
	if err := d.Load(ctx); err != nil {
		return err
	}
	if err := d.RemoveMeme(ctx, pos[1]); err != nil {
		return err
	}
	fmt.Printf("removed meme %s (%d left)\n", pos[1], d.Folder().MemeCount)
	return nil
}

func cmdFoldersAvailable(args []string) error {
	fs := flag.NewFlagSet("folders available", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	limit := fs.Int("cap", views.DefaultAvailableCap, "Scan at most this many memes")
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes folders available <folder-id> [--cap n]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	ctx := context.Background()
	d := views.NewFolderDetail(a.client, pos[0], views.WithLogger(a.logger)).WithAvailableCap(*limit)
	if err := d.Load(ctx); err != nil {
		return err
	}
	avail, err := d.Available(ctx)
	if err != nil {
		return err
	}
	if avail.Truncated {
		a.logger.Sugar().Warnf("only the first %d memes were checked; raise --cap to see more", avail.Scanned)
	}
	memes := avail.Memes
	if memes == nil {
		memes = []models.Meme{}
	}
	return a.print(map[string]any{"memes": memes, "scanned": avail.Scanned, "truncated": avail.Truncated})
}

func cmdFoldersDelete(args []string) error {
	fs := flag.NewFlagSet("folders delete", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes folders delete <folder-id> [--yes]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.confirm("Delete folder %s? The memes themselves are kept.", pos[0]); err != nil {
		return err
	}

	v := views.NewFolders(a.client, a.viewOptions(0)...)
	if err := v.Delete(context.Background(), pos[0]); err != nil {
		return err
	}
	fmt.Printf("deleted folder %s\n", pos[0])
	return nil
}
