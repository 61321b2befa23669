package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/views"
)

const templatesUsage = "usage: memes templates <list|favorites|show|upload|favorite|unfavorite|download|use|rate|delete>"

func cmdTemplates(args []string) error {
	sub, rest, err := subcommand(args, templatesUsage)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return cmdTemplatesList(rest, false)
	case "favorites":
		return cmdTemplatesList(rest, true)
	case "show":
		return cmdTemplatesShow(rest)
	case "upload":
		return cmdTemplatesUpload(rest)
	case "favorite":
		return cmdTemplatesFavorite(rest, true)
	case "unfavorite":
		return cmdTemplatesFavorite(rest, false)
	case "download":
		return cmdTemplatesDownload(rest)
	case "use":
		return cmdTemplatesUse(rest)
	case "rate":
		return cmdTemplatesRate(rest)
	case "delete":
		return cmdTemplatesDelete(rest)
	default:
		return errors.New(templatesUsage)
	}
}

func cmdTemplatesList(args []string, favorites bool) error {
	name := "templates list"
	if favorites {
		name = "templates favorites"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lf := addListFlags(fs)
	category := fs.String("category", "", "Only this category")
	a, _, err := openCommand(fs, g, args, 0, 0, "memes "+name+" [--page n] [--sort s] [--search s] [--category c]")
	if err != nil {
		return err
	}
	defer a.close()

	var v *views.Templates
	if favorites {
		if err := a.requireLogin(); err != nil {
			return err
		}
		v = views.NewFavoriteTemplates(a.client, a.viewOptions(*lf.limit)...)
	} else {
		v = views.NewTemplates(a.client, a.viewOptions(*lf.limit)...)
	}
	env, err := loadList(context.Background(), v.List, lf, "templates", map[string]string{"category": *category})
	if err != nil {
		return err
	}
	return a.print(env)
}

func cmdTemplatesShow(args []string) error {
	fs := flag.NewFlagSet("templates show", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes templates show <template-id>")
	if err != nil {
		return err
	}
	defer a.close()

	tpl, err := a.client.GetTemplate(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(tpl)
}

func cmdTemplatesUpload(args []string) error {
	fs := flag.NewFlagSet("templates upload", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	name := fs.String("name", "", "Template name")
	category := fs.String("category", "", "Category: "+strings.Join(models.Categories, "|"))
	description := fs.String("description", "", "Description")
	public := fs.Bool("public", false, "Show in the public gallery")
	var areas multiStringFlag
	fs.Var(&areas, "text-area", "Caption box x,y,width,height (repeatable)")
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes templates upload <image-file> --name n --category c [--description d] [--public] [--text-area x,y,w,h]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	textAreas, err := parseTextAreas(areas.values)
	if err != nil {
		return err
	}
	image, err := os.ReadFile(pos[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	up := forms.TemplateUpload{
		Input: models.TemplateInput{
			Name:        strings.TrimSpace(*name),
			Category:    strings.TrimSpace(*category),
			Description: strings.TrimSpace(*description),
			TextAreas:   textAreas,
			IsPublic:    *public,
		},
		Filename: filepath.Base(pos[0]),
		Image:    image,
	}
	v := views.NewTemplates(a.client, a.viewOptions(0)...)
	defer v.List.Close()
	tpl, err := v.Create(context.Background(), views.NewSubmitter(), up, nil)
	if err != nil {
		return err
	}
	return a.print(tpl)
}

// parseTextAreas reads "x,y,width,height" boxes.
func parseTextAreas(raw []string) ([]models.TextArea, error) {
	out := make([]models.TextArea, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid --text-area %q: want x,y,width,height", r)
		}
		var nums [4]float64
		for i, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --text-area %q: %w", r, err)
			}
			nums[i] = n
		}
		out = append(out, models.TextArea{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]})
	}
	return out, nil
}

func cmdTemplatesFavorite(args []string, fav bool) error {
	name := "templates favorite"
	if !fav {
		name = "templates unfavorite"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes "+name+" <template-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewTemplates(a.client, a.viewOptions(0)...)
	if err := v.SetFavorite(context.Background(), pos[0], fav); err != nil {
		return err
	}
	if fav {
		fmt.Printf("added %s to favorites\n", pos[0])
	} else {
		fmt.Printf("removed %s from favorites\n", pos[0])
	}
	return nil
}

func cmdTemplatesDownload(args []string) error {
	fs := flag.NewFlagSet("templates download", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	out := fs.String("out", "", "Write the image here (- for stdout); default is the image file name")
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes templates download <template-id> [--out path]")
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	target := strings.TrimSpace(*out)
	if target == "" {
		tpl, err := a.client.GetTemplate(ctx, pos[0])
		if err != nil {
			return err
		}
		target = path.Base(tpl.ImageURL)
		if target == "." || target == "/" {
			target = pos[0]
		}
	}

	var w io.Writer = os.Stdout
	if target != "-" {
		f, err := os.Create(target)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	v := views.NewTemplates(a.client, a.viewOptions(0)...)
	tpl, err := v.Download(ctx, pos[0], w)
	if err != nil {
		if target != "-" {
			_ = os.Remove(target)
		}
		return err
	}
	if target != "-" {
		fmt.Fprintf(os.Stderr, "saved %s to %s (%d downloads)\n", tpl.Name, target, tpl.Stats.Downloads)
	}
	return nil
}

func cmdTemplatesUse(args []string) error {
	fs := flag.NewFlagSet("templates use", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes templates use <template-id>")
	if err != nil {
		return err
	}
	defer a.close()

	v := views.NewTemplates(a.client, a.viewOptions(0)...)
	tpl, err := v.Use(context.Background(), pos[0])
	if err != nil {
		return err
	}
	return a.print(tpl)
}

func cmdTemplatesRate(args []string) error {
	fs := flag.NewFlagSet("templates rate", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, 2, "memes templates rate <template-id> <1-5>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	rating, err := strconv.Atoi(pos[1])
	if err != nil {
		return fmt.Errorf("rating must be a number from 1 to 5")
	}

	v := views.NewTemplates(a.client, a.viewOptions(0)...)
	tpl, err := v.Rate(context.Background(), pos[0], rating)
	if err != nil {
		return err
	}
	return a.print(tpl)
}

func cmdTemplatesDelete(args []string) error {
	fs := flag.NewFlagSet("templates delete", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes templates delete <template-id> [--yes]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.confirm("Delete template %s and its image?", pos[0]); err != nil {
		return err
	}

	v := views.NewTemplates(a.client, a.viewOptions(0)...)
	if err := v.Delete(context.Background(), pos[0]); err != nil {
		return err
	}
	fmt.Printf("deleted template %s\n", pos[0])
	return nil
}
