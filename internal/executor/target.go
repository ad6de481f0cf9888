package executor

import (
	"fmt"
	"strings"
)

// Target describes where a command runs. The set of implementations is closed.
type Target interface {
	// Identity is a stable key for the target, used to key run records and
	// connection pools.
	Identity() string

	isTarget()
}

// LocalTarget runs commands with the host shell.
type LocalTarget struct{}

// ContainerTarget runs commands in a transient container.
type ContainerTarget struct {
	Image  string
	Mounts []Mount
}

// RemoteTarget runs commands on a host reached over SSH.
type RemoteTarget struct {
	Host        string
	Port        int
	Credentials Credentials
}

// Mount binds a host path into a container.
type Mount struct {
	Source   string `yaml:"source"`
	Target   string `yaml:"target"`
	ReadOnly bool   `yaml:"read_only"`
}

// Credentials authenticate against a remote host.
type Credentials struct {
	User       string
	PrivateKey []byte
	Password   string
}

// Local returns the local target.
func Local() LocalTarget { return LocalTarget{} }

// Containerized returns a container target.
func Containerized(image string, mounts ...Mount) ContainerTarget {
	return ContainerTarget{Image: image, Mounts: mounts}
}

// Remote returns a remote target.
func Remote(host string, creds Credentials) RemoteTarget {
	return RemoteTarget{Host: host, Credentials: creds}
}

func (LocalTarget) isTarget()     {}
func (ContainerTarget) isTarget() {}
func (RemoteTarget) isTarget()    {}

// Identity implements Target.
func (LocalTarget) Identity() string { return "local" }

// Identity implements Target.
func (t ContainerTarget) Identity() string { return "container/" + t.Image }

// Identity implements Target. Credentials other than the user are not part
// of the identity.
func (t RemoteTarget) Identity() string {
	id := "remote/"
	if t.Credentials.User != "" {
		id += t.Credentials.User + "@"
	}
	id += t.Host
	if t.Port != 0 && t.Port != 22 {
		id += fmt.Sprintf(":%d", t.Port)
	}
	return id
}

// Validate checks that a target carries what its backend needs.
func Validate(t Target) error {
	switch v := t.(type) {
	case nil:
		return fmt.Errorf("target is not set")
	case LocalTarget:
		return nil
	case ContainerTarget:
		if strings.TrimSpace(v.Image) == "" {
			return fmt.Errorf("container target requires an image")
		}
		for _, m := range v.Mounts {
			if m.Source == "" || m.Target == "" {
				return fmt.Errorf("container mount requires source and target")
			}
		}
		return nil
	case RemoteTarget:
		if strings.TrimSpace(v.Host) == "" {
			return fmt.Errorf("remote target requires a host")
		}
		if v.Credentials.User == "" {
			return fmt.Errorf("remote target %s requires a user", v.Host)
		}
		return nil
	default:
		return fmt.Errorf("unsupported target type %T", t)
	}
}
