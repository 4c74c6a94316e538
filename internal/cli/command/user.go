package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/output"
	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/core/service"
)

// UserCommand returns the user subcommand group. The commands open the
// store directly, so with the badger driver the server must be stopped.
func UserCommand() *cli.Command {
	passwordFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Password for the account",
			EnvVars: []string{"TOKGATE_USER_PASSWORD"},
		},
		&cli.BoolFlag{
			Name:  "password-stdin",
			Usage: "Read the password from the first line of stdin",
		},
	}

	return &cli.Command{
		Name:  "user",
		Usage: "Manage accounts (stop the server first when using badger)",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create an account",
				ArgsUsage: "USERNAME",
				Flags:     passwordFlags,
				Action:    userAdd,
			},
			{
				Name:   "list",
				Usage:  "List accounts",
				Action: userList,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete an account",
				ArgsUsage: "USERNAME",
				Action:    userDelete,
			},
			{
				Name:      "passwd",
				Usage:     "Set the password of an account",
				ArgsUsage: "USERNAME",
				Flags:     passwordFlags,
				Action:    userPasswd,
			},
		},
	}
}

// withStore loads the configuration, opens the store and runs fn.
func withStore(c *cli.Context, fn func(users userStore) error) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log, c.App.ErrWriter)
	if err != nil {
		return err
	}

	be, err := openBackend(c.Context, cfg.Storage, false, log)
	if err != nil {
		return err
	}
	err = fn(be.users)
	if cerr := be.close(); err == nil {
		err = cerr
	}
	return err
}

func usernameArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("exactly one USERNAME argument is required")
	}
	return c.Args().First(), nil
}

// readPassword takes the password from --password or, with
// --password-stdin, from the first line of r.
func readPassword(c *cli.Context, r io.Reader) (string, error) {
	if c.Bool("password-stdin") {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return "", errors.New("empty password on stdin")
		}
		return line, nil
	}
	if p := c.String("password"); p != "" {
		return p, nil
	}
	return "", errors.New("a password is required (--password, TOKGATE_USER_PASSWORD or --password-stdin)")
}

func userAdd(c *cli.Context) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	password, err := readPassword(c, c.App.Reader)
	if err != nil {
		return err
	}

	return withStore(c, func(users userStore) error {
		// Register needs no session or CSRF tables.
		auth := service.NewAuthService(users, nil, nil)
		if err := auth.Register(c.Context, username, password); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "user %q created\n", username)
		return nil
	})
}

func userPasswd(c *cli.Context) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	password, err := readPassword(c, c.App.Reader)
	if err != nil {
		return err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return err
	}

	return withStore(c, func(users userStore) error {
		user, err := users.Get(c.Context, username)
		if err != nil {
			return err
		}
		hash, err := service.HashPassword(password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.UpdatedAt = time.Now().UTC()
		if err := users.Update(c.Context, user); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "password of %q updated\n", username)
		return nil
	})
}

func userDelete(c *cli.Context) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	return withStore(c, func(users userStore) error {
		if err := users.Delete(c.Context, username); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "user %q deleted\n", username)
		return nil
	})
}

// userView is an account without its password hash.
type userView struct {
	Username  string    `json:"username" yaml:"username"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

type userViews []userView

func (vs userViews) Table() *output.Table {
	t := output.NewTable("USERNAME", "CREATED", "UPDATED")
	for _, v := range vs {
		t.AddRow(v.Username, output.Time(v.CreatedAt), output.Time(v.UpdatedAt))
	}
	return t
}

func newUserViews(users []*domain.User) userViews {
	vs := make(userViews, 0, len(users))
	for _, u := range users {
		vs = append(vs, userView{Username: u.Username, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt})
	}
	return vs
}

func userList(c *cli.Context) error {
	return withStore(c, func(users userStore) error {
		list, err := users.List(c.Context)
		if err != nil {
			return err
		}
		return render(c, newUserViews(list))
	})
}
