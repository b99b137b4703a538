package app

import "github.com/coreos/go-systemd/v22/daemon"

// sdNotify reports state to systemd. It is a no-op outside a notify unit.
func sdNotify(state string) error {
	_, err := daemon.SdNotify(false, state)
	return err
}
