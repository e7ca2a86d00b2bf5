package utils

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// Account is the person the CLI acts for. Under sudo that is SUDO_USER,
// so ~/.parkspot lands in their home and stays owned by them.
type Account struct {
	Username string
	HomeDir  string
	UID      int
	GID      int
	ViaSudo  bool
}

// ActualAccount resolves SUDO_USER first and falls back to the current user.
// Username, UID and GID are best effort; HomeDir is required.
func ActualAccount() (Account, error) {
	if name := os.Getenv("SUDO_USER"); name != "" {
		if u, err := user.Lookup(name); err == nil {
			return fromOSUser(u, true), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Account{}, fmt.Errorf("home directory: %w", err)
	}

	u, err := user.Current()
	if err != nil {
		return Account{HomeDir: home, UID: -1, GID: -1}, nil
	}
	acct := fromOSUser(u, false)
	acct.HomeDir = home
	return acct, nil
}

func fromOSUser(u *user.User, viaSudo bool) Account {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		uid = -1
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		gid = -1
	}
	return Account{Username: u.Username, HomeDir: u.HomeDir, UID: uid, GID: gid, ViaSudo: viaSudo}
}

// GetActualUser returns the username and home directory of ActualAccount.
func GetActualUser() (username, homeDir string, err error) {
	acct, err := ActualAccount()
	if err != nil {
		return "", "", err
	}
	return acct.Username, acct.HomeDir, nil
}

// Chown hands path to the account. It only acts when running via sudo with
// a resolved uid/gid; os.Chown is a no-op on Windows.
func (a Account) Chown(path string) error {
	if !a.ViaSudo || a.UID < 0 || a.GID < 0 {
		return nil
	}
	return os.Chown(path, a.UID, a.GID)
}

// FixFileOwnership gives path back to SUDO_USER. Lookup failures are ignored.
func FixFileOwnership(path string) error {
	acct, err := ActualAccount()
	if err != nil {
		return nil
	}
	return acct.Chown(path)
}
