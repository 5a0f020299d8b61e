package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"veilchat/internal/domain"
	"veilchat/internal/session"
)

func TestParseDirective(t *testing.T) {
	conf, auth := domain.VariantConfidentiality, domain.VariantAuthenticity
	cases := []struct {
		variant domain.Variant
		line    string
		want    session.Directive
	}{
		{conf, "", session.Directive{Kind: session.Empty}},
		{conf, "   \t", session.Directive{Kind: session.Empty}},
		{conf, "hello", session.Directive{Kind: session.Say, Text: "hello"}},
		{conf, "  padded  ", session.Directive{Kind: session.Say, Text: "  padded  "}},
		{conf, "!secret bob", session.Directive{Kind: session.EnterPrivate, Target: "bob"}},
		{conf, "!secret bob\r", session.Directive{Kind: session.EnterPrivate, Target: "bob"}},
		{conf, "!secret bob smith", session.Directive{Kind: session.Say, Text: "!secret bob smith"}},
		{conf, "!secret", session.Directive{Kind: session.Say, Text: "!secret"}},
		{conf, "!exit", session.Directive{Kind: session.ExitPrivate}},
		{conf, "!exit now", session.Directive{Kind: session.Say, Text: "!exit now"}},
		{conf, "!impersonate bob", session.Directive{Kind: session.Say, Text: "!impersonate bob"}},
		{auth, "!impersonate alice_2", session.Directive{Kind: session.Impersonate, Target: "alice_2"}},
		{auth, "!exit", session.Directive{Kind: session.ExitImpersonation}},
		{auth, "!secret bob", session.Directive{Kind: session.Say, Text: "!secret bob"}},
		{auth, "!impersonate bob-x", session.Directive{Kind: session.Say, Text: "!impersonate bob-x"}},
	}
	for _, tc := range cases {
		t.Run(tc.variant.String()+"/"+tc.line, func(t *testing.T) {
			require.Equal(t, tc.want, session.ParseDirective(tc.variant, tc.line))
		})
	}
}

func TestNextConfidential(t *testing.T) {
	var m session.ConfidentialMode = session.Public{}

	m = session.NextConfidential(m, session.Directive{Kind: session.Say, Text: "x"})
	require.Equal(t, session.Public{}, m)

	m = session.NextConfidential(m, session.Directive{Kind: session.EnterPrivate, Target: "bob"})
	require.Equal(t, session.PrivateTo{Target: "bob"}, m)
	require.Equal(t, domain.Username("bob"), session.TargetOf(m))

	m = session.NextConfidential(m, session.Directive{Kind: session.EnterPrivate, Target: "carol"})
	require.Equal(t, session.PrivateTo{Target: "carol"}, m)

	m = session.NextConfidential(m, session.Directive{Kind: session.ExitPrivate})
	require.Equal(t, session.Public{}, m)
	require.Empty(t, session.TargetOf(m))
}

func TestNextClaimed(t *testing.T) {
	m := session.ClaimedIdentity{Name: "alice"}

	m = session.NextClaimed("alice", m, session.Directive{Kind: session.Impersonate, Target: "bob"})
	require.Equal(t, domain.Username("bob"), m.Name)

	m = session.NextClaimed("alice", m, session.Directive{Kind: session.Say, Text: "hi"})
	require.Equal(t, domain.Username("bob"), m.Name)

	m = session.NextClaimed("alice", m, session.Directive{Kind: session.ExitImpersonation})
	require.Equal(t, domain.Username("alice"), m.Name)
}
