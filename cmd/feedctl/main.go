package main

import (
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"jamsocial/internal/common"
	"jamsocial/internal/config"
	"jamsocial/internal/dbmysql"
	"jamsocial/internal/di"
	"jamsocial/internal/logging"
	"jamsocial/internal/profile"
)

func main() {
	app := &cli.App{
		Name:  "feedctl",
		Usage: "operate on profile feeds from the command line",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create or update the MySQL tables",
				Action: runMigrate,
			},
			{
				Name:   "snapshot",
				Usage:  "assemble a user's feed once and print it as JSON",
				Flags:  []cli.Flag{userFlag},
				Action: runSnapshot,
			},
			{
				Name:  "avatar",
				Usage: "upload an avatar image for a user",
				Flags: []cli.Flag{
					userFlag,
					&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Required: true},
					&cli.StringFlag{Name: "content-type", Usage: "sniffed from the file when empty"},
				},
				Action: runAvatar,
			},
			{
				Name:  "post",
				Usage: "create a post with optional media files",
				Flags: []cli.Flag{
					userFlag,
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}},
					&cli.StringSliceFlag{Name: "media", Aliases: []string{"m"}},
				},
				Action: runPost,
			},
			{
				Name:  "token",
				Usage: "issue a bearer token for local testing",
				Flags: []cli.Flag{
					userFlag,
					&cli.StringFlag{Name: "handle", Value: "local"},
				},
				Action: runToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var userFlag = &cli.Int64Flag{
	Name:     "user",
	Aliases:  []string{"u"},
	EnvVars:  []string{"FEEDCTL_USER"},
	Required: true,
}

func runMigrate(cmd *cli.Context) error {
	cfg := config.LoadConfig()
	logger := logging.New(cfg.Logging)

	db, err := dbmysql.NewMySQL(cfg, logger)
	if err != nil {
		return err
	}
	if err := dbmysql.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("migration completed")
	return nil
}

func runSnapshot(cmd *cli.Context) error {
	app, cleanup, err := di.InitializeApplication(config.LoadConfig())
	if err != nil {
		return err
	}
	defer cleanup()

	userID := cmd.Int64("user")
	assembler, err := app.Feeds.Get(userID)
	if err != nil {
		return err
	}
	snapshot, err := assembler.Run(cmd.Context, userID)
	if err != nil {
		return err
	}
	return printJSON(snapshot)
}

func runAvatar(cmd *cli.Context) error {
	path := cmd.Path("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	contentType := cmd.String("content-type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	app, cleanup, err := di.InitializeApplication(config.LoadConfig())
	if err != nil {
		return err
	}
	defer cleanup()

	userID := cmd.Int64("user")
	result, err := app.Avatars.ReplaceAvatar(cmd.Context, userID, data, contentType)
	if result != nil {
		printJSON(result)
	}
	if err != nil {
		return err
	}

	user, err := dbmysql.NewUserRepository(app.DB).GetByID(cmd.Context, userID)
	if err != nil {
		return fmt.Errorf("failed to read user %d: %w", userID, err)
	}
	if user.HasAvatar() {
		fmt.Printf("avatar on record: %s\n", *user.AvatarURL)
	} else {
		fmt.Println("no avatar on record")
	}
	return nil
}

func runPost(cmd *cli.Context) error {
	var uploads []profile.Upload
	for _, path := range cmd.StringSlice("media") {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		uploads = append(uploads, profile.Upload{
			FileName:    filepath.Base(path),
			ContentType: common.ContentTypeFor(path),
			Data:        data,
		})
	}

	app, cleanup, err := di.InitializeApplication(config.LoadConfig())
	if err != nil {
		return err
	}
	defer cleanup()

	post, err := app.Posts.CreatePost(cmd.Context, cmd.Int64("user"), cmd.String("text"), uploads)
	if err != nil {
		return err
	}
	return printJSON(post)
}

func runToken(cmd *cli.Context) error {
	cfg := config.LoadConfig()
	token, err := common.NewTokenIssuer(cfg.Auth.JWTSecret).GenerateToken(cmd.Int64("user"), cmd.String("handle"))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
