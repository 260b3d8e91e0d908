package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-appeals-client/api"
	"github.com/jrsteele09/go-appeals-client/app"
	"github.com/jrsteele09/go-appeals-client/appeals"
	"github.com/jrsteele09/go-appeals-client/credentials"
	"github.com/jrsteele09/go-appeals-client/internal/config"
	"github.com/spf13/cobra"
)

// cli carries the lazily built application between commands.
type cli struct {
	cfg config.Config
	app *app.App
}

func newRootCommand(cfg config.Config) *cobra.Command {
	c := &cli{cfg: cfg}

	root := &cobra.Command{
		Use:           "appealctl",
		Short:         "Command line client for the e-Appeal citizen appeals service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd == cmd.Root() || cmd.Name() == "help" {
				return nil
			}
			a, err := app.New(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			c.app = a
			c.app.Start(cmd.Context())
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			displayAppname(cfg.GetAppName())
			return cmd.Help()
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.statusCommand(),
		c.appealsCommand(),
		c.categoriesCommand(),
		c.notificationsCommand(),
		c.rateCommand(),
	)
	return root
}

func (c *cli) loginCommand() *cobra.Command {
	var phone, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with phone number and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" || password == "-" {
				p, err := readLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "password: ")
				if err != nil {
					return err
				}
				password = p
			}
			st, err := c.app.SignIn(cmd.Context(), phone, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.app.Translator.T("session.logged_in"))
			if st.Identity != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", st.Identity.FullName, st.Identity.Phone)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone number, e.g. +998901234567")
	cmd.Flags().StringVar(&password, "password", "", "password; omit or use - to read it from stdin")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear stored credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.app.Translator.T("session.logged_out"))
			return nil
		},
	}
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := c.app.Session.State()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:  %s\n", st.Status)
			if st.Identity != nil {
				fmt.Fprintf(out, "user:    %s %s\n", st.Identity.FullName, st.Identity.Phone)
				fmt.Fprintf(out, "region:  %s\n", appeals.RegionDisplayName(st.Identity.Region))
			}
			if st.Credential == nil {
				return nil
			}
			// advisory only: the server decides whether the credential is still valid
			if claims, err := credentials.InspectAccessToken(st.Credential.Access); err == nil && claims.ExpiresAt != nil {
				note := ""
				if claims.Expired(time.Now()) {
					note = " (expired)"
				}
				fmt.Fprintf(out, "expires: %s%s\n", claims.ExpiresAt.Local().Format(time.RFC1123), note)
			}
			return nil
		},
	}
}

func (c *cli) appealsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appeals",
		Short: "List, show and create appeals",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List your appeals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := c.app.Appeals.MyAppeals(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tDATE\tSTATUS\tCATEGORY")
			for _, a := range page.Results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Number, a.Date, c.statusText(a.Status), a.Category)
			}
			fmt.Fprintf(w, "\n%d of %d\n", len(page.Results), page.Count)
			return w.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", appeals.DefaultPageSize, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show an appeal and its response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid appeal id %q: %w", args[0], err)
			}
			a, err := c.app.Appeals.Detail(cmd.Context(), id)
			if err != nil {
				return err
			}
			c.printAppeal(cmd.Context(), cmd.OutOrStdout(), a)
			return nil
		},
	}

	var (
		text, region string
		category     int
		files        []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Submit a new appeal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := appeals.CreateData{Text: text, Category: category, Region: region}
			for _, path := range files {
				if _, err := os.Stat(path); err != nil {
					return err
				}
				data.Files = append(data.Files, api.PathFile(path))
			}
			a, err := c.app.Appeals.Create(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", a.Number, c.statusText(a.Status))
			return nil
		},
	}
	create.Flags().StringVar(&text, "text", "", "appeal text")
	create.Flags().IntVar(&category, "category", 0, "category id (see categories)")
	create.Flags().StringVar(&region, "region", "", "region code, e.g. nukus")
	create.Flags().StringArrayVar(&files, "file", nil, "attachment path, repeatable")

	cmd.AddCommand(list, show, create)
	return cmd
}

func (c *cli) categoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List appeal categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := c.app.Appeals.Categories(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, cat := range cats {
				fmt.Fprintf(w, "%d\t%s\n", cat.ID, cat.Name)
			}
			return w.Flush()
		},
	}
}

func (c *cli) notificationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List notifications and mark them read",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := c.app.Notifications.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, n := range page.Results {
				mark := "*"
				if n.IsRead {
					mark = " "
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", mark, n.ID, n.Appeal, n.Text)
			}
			return w.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "page size, 0 for the server default")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")

	read := &cobra.Command{
		Use:   "read ID",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid notification id %q: %w", args[0], err)
			}
			n, err := c.app.Notifications.MarkRead(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", n.ID, n.Text)
			return nil
		},
	}

	cmd.AddCommand(list, read)
	return cmd
}

func (c *cli) rateCommand() *cobra.Command {
	var (
		appealID           string
		responseID, rating int
		update             bool
	)
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Rate the response to an appeal (1-5)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			send := c.app.Ratings.Submit
			if update {
				send = c.app.Ratings.Update
			}
			r, err := send(cmd.Context(), appealID, responseID, rating)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", strings.Repeat("★", r.Rating)+strings.Repeat("☆", 5-r.Rating))
			return nil
		},
	}
	cmd.Flags().StringVar(&appealID, "appeal", "", "appeal id the rating is cached against")
	cmd.Flags().IntVar(&responseID, "response", 0, "response id")
	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().BoolVar(&update, "update", false, "replace an existing rating")
	return cmd
}

func (c *cli) statusText(s appeals.Status) string {
	switch s {
	case appeals.StatusRejected:
		return c.app.Translator.T("appeals.status_rejected")
	case appeals.StatusCompleted:
		return c.app.Translator.T("appeals.status_accepted")
	default:
		return c.app.Translator.T("appeals.status_under_review")
	}
}

func (c *cli) printAppeal(ctx context.Context, out io.Writer, a *appeals.Appeal) {
	fmt.Fprintf(out, "%s  %s  %s\n", a.Number, a.Date, c.statusText(a.Status))
	fmt.Fprintf(out, "%s, %s\n\n%s\n", a.Category, a.Region, a.Text)
	for _, f := range a.Files {
		fmt.Fprintf(out, "  - %s\n", f.File)
	}
	if a.Response != nil {
		fmt.Fprintf(out, "\n> %s\n", a.Response.Text)
		if a.Response.Answerer != nil {
			fmt.Fprintf(out, "> %s\n", a.Response.Answerer.FullName)
		}
		if rating, ok := c.app.Ratings.Cached(ctx, a.ID); ok {
			fmt.Fprintf(out, "rating: %d\n", rating)
		}
	}
}

func readLine(in io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
