package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/anonto42/bloglist/backend/internal/client"
	"github.com/anonto42/bloglist/backend/internal/models"
)

type app struct {
	api         *client.Client
	sessionPath string
	in          *input
	out         io.Writer
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout()
	case "blogs":
		return a.listBlogs(ctx)
	case "blog":
		return a.showBlog(ctx, args)
	case "create":
		return a.create(ctx, args)
	case "like":
		return a.like(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "comment":
		return a.comment(ctx, args)
	case "users":
		return a.listUsers(ctx)
	case "stats":
		return a.stats(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func need(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: blogcli %s", usage)
	}
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	if err := need(args, 1, "register <username> [name]"); err != nil {
		return err
	}
	password, err := a.in.password("Password: ")
	if err != nil {
		return err
	}
	name := strings.Join(args[1:], " ")

	user, err := a.api.Register(ctx, args[0], name, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s (%s)\n", user.Username, user.ID.Hex())
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if err := need(args, 1, "login <username>"); err != nil {
		return err
	}
	password, err := a.in.password("Password: ")
	if err != nil {
		return err
	}

	session, err := a.api.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	if err := session.Save(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s logged in\n", displayName(session.Name, session.Username))
	return nil
}

func (a *app) logout() error {
	if err := a.api.Session().Clear(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) listBlogs(ctx context.Context) error {
	blogs, err := a.api.ListBlogs(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tLIKES\tADDED BY")
	for _, b := range blogs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", b.ID.Hex(), b.Title, b.Author, b.Likes, owner(b))
	}
	return w.Flush()
}

func (a *app) showBlog(ctx context.Context, args []string) error {
	if err := need(args, 1, "blog <id>"); err != nil {
		return err
	}
	blog, err := a.api.GetBlog(ctx, args[0])
	if err != nil {
		return err
	}
	printBlog(a.out, blog)
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(a.out)
	title := fs.String("title", "", "blog title")
	author := fs.String("author", "", "blog author")
	url := fs.String("url", "", "blog url")
	likes := fs.Int("likes", 0, "initial likes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	blog, err := a.api.CreateBlog(ctx, models.CreateBlogRequest{
		Title:  *title,
		Author: *author,
		URL:    *url,
		Likes:  likes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "a new blog %s by %s added (%s)\n", blog.Title, blog.Author, blog.ID.Hex())
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	if err := need(args, 1, "like <id>"); err != nil {
		return err
	}
	blog, err := a.api.LikeBlog(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s now has %d likes\n", blog.Title, blog.Likes)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if err := need(args, 1, "delete <id>"); err != nil {
		return err
	}
	if err := a.api.DeleteBlog(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "deleted", args[0])
	return nil
}

func (a *app) comment(ctx context.Context, args []string) error {
	if err := need(args, 2, "comment <id> <text>"); err != nil {
		return err
	}
	blog, err := a.api.AddComment(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s has %d comments\n", blog.Title, len(blog.Comments))
	return nil
}

func (a *app) listUsers(ctx context.Context) error {
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tNAME\tBLOGS")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%d\n", u.Username, u.Name, len(u.Blogs))
	}
	return w.Flush()
}

func (a *app) stats(ctx context.Context) error {
	s, err := a.api.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "total likes: %d\n", s.TotalLikes)
	if s.MostBlogs != nil {
		fmt.Fprintf(a.out, "most blogs:  %s (%d)\n", s.MostBlogs.Author, s.MostBlogs.Blogs)
	}
	if s.MostLikes != nil {
		fmt.Fprintf(a.out, "most likes:  %s by %s (%d)\n", s.MostLikes.Title, s.MostLikes.Author, s.MostLikes.Likes)
	}
	return nil
}

func printBlog(w io.Writer, b *models.BlogResponse) {
	fmt.Fprintf(w, "%s %s\n%s\n%d likes\nadded by %s\n", b.Title, b.Author, b.URL, b.Likes, owner(*b))
	if len(b.Comments) == 0 {
		return
	}
	fmt.Fprintln(w, "\ncomments")
	for _, c := range b.Comments {
		fmt.Fprintln(w, "  -", c)
	}
}

func owner(b models.BlogResponse) string {
	if b.User == nil {
		return "-"
	}
	return displayName(b.User.Name, b.User.Username)
}

func displayName(name, username string) string {
	if name != "" {
		return name
	}
	return username
}
