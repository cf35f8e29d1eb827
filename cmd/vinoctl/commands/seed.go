package commands

import (
	"fmt"

	"vinoteca/internal/seed"

	"github.com/spf13/cobra"
)

var seedOpts = seed.DefaultOptions()

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the wine catalog and demo community data",
	Long: `Insert missing catalog wines, then create fake users with reviews and
comments. Everything goes through the same services as the API.

Examples:
  vinoctl seed                       # Default amounts
  vinoctl seed --users 50 --clean    # Wipe users, reviews and comments first
  vinoctl seed --rand-seed 42        # Reproducible data`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(db)

		res, err := seed.Seed(cmd.Context(), db, seedOpts)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wines=%d users=%d reviews=%d comments=%d\n",
			res.Wines, res.Users, res.Reviews, res.Comments)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.NumUsers, "users", seedOpts.NumUsers, "Number of users to create")
	f.IntVar(&seedOpts.ReviewsPerUser, "reviews-per-user", seedOpts.ReviewsPerUser, "Reviews written by each user")
	f.IntVar(&seedOpts.CommentsPerReview, "comments-per-review", seedOpts.CommentsPerReview, "Maximum comments on each review")
	f.IntVar(&seedOpts.MaxDays, "max-days", seedOpts.MaxDays, "Spread timestamps over this many past days")
	f.Int64Var(&seedOpts.RandSeed, "rand-seed", 0, "Fake data seed (0 = time based)")
	f.BoolVar(&seedOpts.ShouldClean, "clean", false, "Delete users, reviews and comments first")

	rootCmd.AddCommand(seedCmd)
}
