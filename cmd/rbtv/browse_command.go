package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rbtv/internal/catalog"
	"rbtv/internal/logging"
)

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse shows, episodes, Bohnen and blog posts",
	}

	browseCmd.AddCommand(newBrowseShowsCommand(ctx))
	browseCmd.AddCommand(newBrowseEpisodesCommand(ctx))
	browseCmd.AddCommand(newBrowseBohnenCommand(ctx))
	browseCmd.AddCommand(newBrowsePostsCommand(ctx))
	browseCmd.AddCommand(newBrowseSearchCommand(ctx))

	return browseCmd
}

// listFlags are the ordering flags shared by the browse subcommands.
type listFlags struct {
	sortBy string
	limit  int
}

func (l *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.sortBy, "sort-by", "", "Sort by this field before printing")
	cmd.Flags().IntVar(&l.limit, "limit", 0, "Print at most this many entries (0 = all)")
}

func (l *listFlags) options() catalog.ListOptions {
	return catalog.ListOptions{SortBy: l.sortBy, Limit: l.limit}
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("not a numeric id: %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newBrowseShowsCommand(ctx *commandContext) *cobra.Command {
	var list listFlags
	var names []string
	var withEpisodes bool
	var long bool

	cmd := &cobra.Command{
		Use:   "shows [id...]",
		Short: "List shows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if len(ids) > 0 && len(names) > 0 {
				return errors.New("ids and --name are mutually exclusive")
			}

			backend, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			runCtx := cmd.Context()
			var shows []catalog.Show
			switch {
			case len(ids) > 0:
				shows, err = backend.Shows(runCtx, ids)
			case len(names) > 0:
				shows, err = backend.ShowsByName(runCtx, names)
			default:
				shows, err = backend.AllShows(runCtx, list.options())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if long {
				for _, show := range shows {
					fmt.Fprintln(out, catalog.FormatShowLong(show, 0))
				}
			} else {
				rows := make([][]string, 0, len(shows))
				for _, show := range shows {
					rows = append(rows, []string{
						strconv.Itoa(show.ID), show.Title, show.Genre,
						strconv.Itoa(len(show.Seasons)), yesNo(show.HasUnsortedEpisodes),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Genre", "Seasons", "Unsorted"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}))
			}

			if withEpisodes {
				showIDs := make([]int, 0, len(shows))
				for _, show := range shows {
					showIDs = append(showIDs, show.ID)
				}
				eps, err := backend.EpisodesByShow(runCtx, showIDs, false, list.options())
				if err != nil {
					return err
				}
				printEpisodes(cmd, backend, eps, long)
			}
			return nil
		},
	}

	list.register(cmd)
	cmd.Flags().StringSliceVar(&names, "name", nil, "Select shows by name instead of id")
	cmd.Flags().BoolVar(&withEpisodes, "episodes", false, "Also list the episodes of the selected shows")
	cmd.Flags().BoolVar(&long, "long", false, "Print descriptions and watch URLs instead of a table")
	return cmd
}

func newBrowseEpisodesCommand(ctx *commandContext) *cobra.Command {
	var sel selection
	var list listFlags
	var long bool

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List episodes matching a selector",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sel.validate(); err != nil {
				return err
			}

			backend, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			runCtx := cmd.Context()
			opts := list.options()
			var eps []catalog.Episode
			switch {
			case len(sel.episodeIDs) > 0:
				eps, err = backend.Episodes(runCtx, sel.episodeIDs)
			case len(sel.seasonIDs) > 0:
				eps, err = backend.EpisodesBySeason(runCtx, sel.seasonIDs, opts)
			case len(sel.showIDs) > 0:
				eps, err = backend.EpisodesByShow(runCtx, sel.showIDs, sel.unsortedOnly, opts)
			case len(sel.showNames) > 0:
				eps, err = backend.EpisodesByShowName(runCtx, sel.showNames, sel.unsortedOnly, opts)
			case sel.allShows:
				eps, err = backend.AllEpisodes(runCtx, sel.unsortedOnly, opts)
			case len(sel.bohneIDs) > 0:
				eps, err = backend.EpisodesByBohne(runCtx, sel.bohneIDs, sel.bohneNum, sel.bohneExclusive, opts)
			case len(sel.bohneNames) > 0:
				eps, err = backend.EpisodesByBohneName(runCtx, sel.bohneNames, sel.bohneNum, sel.bohneExclusive, opts)
			}
			if err != nil {
				return err
			}

			printEpisodes(cmd, backend, eps, long)
			return nil
		},
	}

	sel.register(cmd)
	list.register(cmd)
	cmd.Flags().BoolVar(&long, "long", false, "Print descriptions and watch URLs instead of a table")
	return cmd
}

func printEpisodes(cmd *cobra.Command, backend catalog.Backend, eps []catalog.Episode, long bool) {
	out := cmd.OutOrStdout()
	if long {
		for _, ep := range eps {
			season := catalog.GetSeasonInfo(cmd.Context(), backend, logging.NewNop(), ep)
			fmt.Fprintln(out, catalog.FormatEpisodeLong(ep, season, 0))
		}
		return
	}

	rows := make([][]string, 0, len(eps))
	for _, ep := range eps {
		seasonLabel := ""
		if ep.InSeason() {
			seasonLabel = strconv.Itoa(ep.SeasonID)
		}
		date := ""
		if t, ok := ep.BroadcastDate(); ok {
			date = t.Format("2006-01-02")
		}
		rows = append(rows, []string{
			strconv.Itoa(ep.ID), ep.ShowName, seasonLabel, ep.Episode, ep.Title, date,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Show", "Season", "Ep", "Title", "Broadcast"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft}))
}

func newBrowseBohnenCommand(ctx *commandContext) *cobra.Command {
	var list listFlags
	var names []string
	var withEpisodes bool

	cmd := &cobra.Command{
		Use:   "bohnen [id...]",
		Short: "List Bohnen",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if len(ids) > 0 && len(names) > 0 {
				return errors.New("ids and --name are mutually exclusive")
			}

			backend, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			runCtx := cmd.Context()
			var bohnen []catalog.Bohne
			switch {
			case len(ids) > 0:
				bohnen, err = backend.Bohnen(runCtx, ids)
			case len(names) > 0:
				bohnen, err = backend.BohnenByName(runCtx, names)
			default:
				bohnen, err = backend.AllBohnen(runCtx, list.options())
			}
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(bohnen))
			for _, bohne := range bohnen {
				rows = append(rows, []string{
					strconv.Itoa(bohne.ID), bohne.Name, strconv.Itoa(bohne.EpisodeCount),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Episodes"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight}))

			if withEpisodes {
				bohneIDs := make([]int, 0, len(bohnen))
				for _, bohne := range bohnen {
					bohneIDs = append(bohneIDs, bohne.ID)
				}
				eps, err := backend.EpisodesByBohne(runCtx, bohneIDs, 1, false, list.options())
				if err != nil {
					return err
				}
				printEpisodes(cmd, backend, eps, false)
			}
			return nil
		},
	}

	list.register(cmd)
	cmd.Flags().StringSliceVar(&names, "name", nil, "Select Bohnen by name instead of id")
	cmd.Flags().BoolVar(&withEpisodes, "episodes", false, "Also list the episodes of the selected Bohnen")
	return cmd
}

func newBrowsePostsCommand(ctx *commandContext) *cobra.Command {
	var list listFlags
	var long bool

	cmd := &cobra.Command{
		Use:   "posts [id...]",
		Short: "List blog posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			backend, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			var posts []catalog.BlogPost
			if len(ids) > 0 {
				posts, err = backend.Posts(cmd.Context(), ids)
			} else {
				posts, err = backend.AllPosts(cmd.Context(), list.options())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if long {
				for _, post := range posts {
					fmt.Fprintln(out, catalog.FormatPostLong(post))
				}
				return nil
			}
			rows := make([][]string, 0, len(posts))
			for _, post := range posts {
				names := make([]string, 0, len(post.Authors))
				for _, a := range post.Authors {
					names = append(names, a.Name)
				}
				date := ""
				if t, ok := post.PublishedAt(); ok {
					date = t.Format("2006-01-02")
				}
				rows = append(rows, []string{
					strconv.Itoa(post.ID), post.Title, strings.Join(names, ", "), date,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Authors", "Published"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	list.register(cmd)
	cmd.Flags().BoolVar(&long, "long", false, "Print subtitles instead of a table")
	return cmd
}

func newBrowseSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search shows, episodes and blog posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := ctx.openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			result, err := backend.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Shows (%d)\n", len(result.Shows))
			for _, show := range result.Shows {
				fmt.Fprintln(out, catalog.FormatShowShort(show))
			}
			fmt.Fprintf(out, "Episodes (%d)\n", len(result.Episodes))
			for _, ep := range result.Episodes {
				season := catalog.GetSeasonInfo(cmd.Context(), backend, logging.NewNop(), ep)
				fmt.Fprintln(out, catalog.FormatEpisodeShort(ep, season))
			}
			fmt.Fprintf(out, "Blog posts (%d)\n", len(result.Posts))
			for _, post := range result.Posts {
				fmt.Fprintln(out, catalog.FormatPostShort(post))
			}
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
