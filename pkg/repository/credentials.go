package repository

import (
	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// CredentialProvider supplies authentication for a remote endpoint. A nil
// AuthMethod means the transport's default behaviour.
type CredentialProvider interface {
	AuthFor(endpoint *transport.Endpoint) (transport.AuthMethod, error)
}

// AgentCredentials authenticates ssh remotes through the running ssh-agent
// and leaves every other protocol to its defaults
type AgentCredentials struct{}

// AuthFor implements CredentialProvider
func (AgentCredentials) AuthFor(endpoint *transport.Endpoint) (transport.AuthMethod, error) {
	if endpoint == nil || endpoint.Protocol != "ssh" {
		return nil, nil
	}
	user := endpoint.User
	if user == "" {
		user = "git"
	}
	auth, err := ssh.NewSSHAgentAuth(user)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRepository, "failed to reach ssh-agent for %s", endpoint.Host)
	}
	return auth, nil
}

// NoCredentials never authenticates. It suits local remotes.
type NoCredentials struct{}

// AuthFor implements CredentialProvider
func (NoCredentials) AuthFor(*transport.Endpoint) (transport.AuthMethod, error) {
	return nil, nil
}

func authFor(provider CredentialProvider, url string) (transport.AuthMethod, error) {
	if provider == nil {
		return nil, nil
	}
	endpoint, err := transport.NewEndpoint(url)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid remote URL %q", url)
	}
	return provider.AuthFor(endpoint)
}
