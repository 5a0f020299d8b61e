package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"veilchat/internal/app"
	"veilchat/internal/console"
	vlog "veilchat/internal/log"
)

const clientLogLevel = "WARNING"

func chatCmd() *cobra.Command {
	var (
		variant  string
		relayTo  string
		username string
		instance string
		discover bool
		keyBits  int
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a relay and chat",
		Long: `Join a relay and chat.

In the confidentiality variant "!secret <name>" encrypts following lines to
<name> and "!exit" returns to public chat. In the authenticity variant every
line is signed, "!impersonate <name>" claims another name and "!exit" returns
to your own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("variant") {
				cfg.Client.Variant = variant
			}
			if flags.Changed("relay") {
				cfg.Client.RelayAddress = relayTo
				cfg.Client.Discover = false
			}
			if flags.Changed("username") {
				cfg.Client.Username = username
			}
			if flags.Changed("instance") {
				cfg.Client.Instance = instance
			}
			if flags.Changed("discover") {
				cfg.Client.Discover = discover
			}
			if flags.Changed("key-bits") {
				cfg.Client.KeyBits = keyBits
			}
			if err := cfg.FixupAndValidate(); err != nil {
				return err
			}

			backend, err := vlog.New(cfg.Logging.File, cfg.Logging.LevelOr(clientLogLevel), cfg.Logging.Disable)
			if err != nil {
				return err
			}
			defer backend.Close()

			w, err := app.NewWire(cfg, backend)
			if err != nil {
				return err
			}

			lines := console.NewLineReader(cmd.InOrStdin())
			defer lines.Stop()

			client := app.NewClient(w, console.New(cmd.OutOrStdout()), lines.Lines())
			err = client.Run(cmd.Context())
			if rerr := lines.Err(); rerr != nil {
				backend.GetLogger("console").Warningf("reading input: %v", rerr)
			}
			if errors.Is(err, app.ErrRelayDisconnected) {
				return nil
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&variant, "variant", "confidentiality", "pipeline: confidentiality or authenticity")
	f.StringVar(&relayTo, "relay", "", "relay address host:port")
	f.StringVarP(&username, "username", "u", "", "register as this name without prompting")
	f.BoolVar(&discover, "discover", false, "find the relay over mDNS")
	f.StringVar(&instance, "instance", "", "only discover the relay advertised under this name")
	f.IntVar(&keyBits, "key-bits", 2048, "RSA modulus size for this session's key pair")
	return cmd
}
