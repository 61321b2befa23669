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

const commentsUsage = "usage: memes comments <list|replies|post|reply|like|edit|report|delete>"

func cmdComments(args []string) error {
	sub, rest, err := subcommand(args, commentsUsage)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return cmdCommentsList(rest)
	case "replies":
		return cmdCommentsReplies(rest)
	case "post":
		return cmdCommentsPost(rest)
	case "reply":
		return cmdCommentsReply(rest)
	case "like":
		return cmdCommentsLike(rest)
	case "edit":
		return cmdCommentsEdit(rest)
	case "report":
		return cmdCommentsReport(rest)
	case "delete":
		return cmdCommentsDelete(rest)
	default:
		return errors.New(commentsUsage)
	}
}

func cmdCommentsList(args []string) error {
	fs := flag.NewFlagSet("comments list", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lf := addListFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, 1, "memes comments list <meme-id> [--page n] [--sort newest|oldest|popular]")
	if err != nil {
		return err
	}
	defer a.close()

	v := views.NewComments(a.client, pos[0], a.viewOptions(*lf.limit)...)
	env, err := loadList(context.Background(), v.List, lf, "comments", nil)
	if err != nil {
		return err
	}
	return a.print(env)
}

func cmdCommentsReplies(args []string) error {
	fs := flag.NewFlagSet("comments replies", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lf := addListFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, 2, "memes comments replies <meme-id> <comment-id> [--page n] [--sort oldest|newest|popular]")
	if err != nil {
		return err
	}
	defer a.close()

	v := views.NewComments(a.client, pos[0], a.viewOptions(*lf.limit)...)
	env, err := loadList(context.Background(), v.Replies(pos[1]), lf, "comments", nil)
	if err != nil {
		return err
	}
	return a.print(env)
}

// commentText joins the remaining words so quoting is optional.
func commentText(words []string) string {
	return strings.TrimSpace(strings.Join(words, " "))
}

func cmdCommentsPost(args []string) error {
	fs := flag.NewFlagSet("comments post", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 1, -1, "memes comments post <meme-id> <text>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewComments(a.client, pos[0], a.viewOptions(0)...)
	defer v.List.Close()
	c, err := v.Post(context.Background(), views.NewSubmitter(), commentText(pos[1:]), nil)
	if err != nil {
		return err
	}
	return a.print(c)
}

func cmdCommentsReply(args []string) error {
	fs := flag.NewFlagSet("comments reply", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, -1, "memes comments reply <meme-id> <comment-id> <text>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewComments(a.client, pos[0], a.viewOptions(0)...)
	defer v.List.Close()
	c, err := v.Reply(context.Background(), views.NewSubmitter(), pos[1], commentText(pos[2:]), nil)
	if err != nil {
		return err
	}
	return a.print(c)
}

func cmdCommentsLike(args []string) error {
	fs := flag.NewFlagSet("comments like", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, 2, "memes comments like <meme-id> <comment-id>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewComments(a.client, pos[0], a.viewOptions(0)...)
	c, err := v.Like(context.Background(), pos[1])
	if err != nil {
		return err
	}
	return a.print(c)
}

func cmdCommentsEdit(args []string) error {
	fs := flag.NewFlagSet("comments edit", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, -1, "memes comments edit <meme-id> <comment-id> <text>")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewComments(a.client, pos[0], a.viewOptions(0)...)
	c, err := v.Edit(context.Background(), pos[1], commentText(pos[2:]))
	if err != nil {
		return err
	}
	return a.print(c)
}

func cmdCommentsReport(args []string) error {
	fs := flag.NewFlagSet("comments report", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	reason := fs.String("reason", "", "Reason: spam|harassment|inappropriate|other")
	details := fs.String("details", "", "Details")
	a, pos, err := openCommand(fs, g, args, 2, 2, "memes comments report <meme-id> <comment-id> --reason r [--details d]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	v := views.NewComments(a.client, pos[0], a.viewOptions(0)...)
	report, err := v.Report(context.Background(), views.NewSubmitter(), pos[1], models.ReportInput{
		Reason:  strings.ToLower(strings.TrimSpace(*reason)),
		Details: strings.TrimSpace(*details),
	}, nil)
	if err != nil {
		return err
	}
	fmt.Printf("reported comment %s as %s (report %s)\n", report.CommentID, report.Reason, report.ID)
	return nil
}

func cmdCommentsDelete(args []string) error {
	fs := flag.NewFlagSet("comments delete", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	a, pos, err := openCommand(fs, g, args, 2, 2, "memes comments delete <meme-id> <comment-id> [--yes]")
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.confirm("Delete comment %s and its replies?", pos[1]); err != nil {
		return err
	}

	v := views.NewComments(a.client, pos[0], a.viewOptions(0)...)
	defer v.List.Close()
	if err := v.Delete(context.Background(), pos[1]); err != nil {
		return err
	}
	fmt.Printf("deleted comment %s\n", pos[1])
	return nil
}
