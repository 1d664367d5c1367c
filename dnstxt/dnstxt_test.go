// Copyright 2024-2025 Registrymesh, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dnstxt_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/dns/dnsmessage"

	"github.com/registrymesh/discovery/dnstxt"
	"github.com/registrymesh/discovery/endpoint"
)

// fakeZone builds a *net.Resolver backed by an in-memory DNS server that
// answers TXT queries from the given record map. Names are keyed without
// the trailing dot. Unknown names get NXDOMAIN.
func fakeZone(records map[string][]string) *net.Resolver {
	return failingZone(records)
}

// failingZone is fakeZone with some names answering SERVFAIL.
func failingZone(records map[string][]string, failing ...string) *net.Resolver {
	failures := make(map[string]bool, len(failing))
	for _, name := range failing {
		failures[name] = true
	}
	return &net.Resolver{
		PreferGo: true,
		Dial: func(context.Context, string, string) (net.Conn, error) {
			return &dnsServerConn{records: records, failing: failures}, nil
		},
	}
}

// dnsServerConn speaks just enough RFC 7766 (2-byte length-prefixed DNS
// over a stream) to satisfy the Go resolver's round trip.
type dnsServerConn struct {
	records map[string][]string
	failing map[string]bool

	mu       sync.Mutex
	request  bytes.Buffer
	response bytes.Buffer
}

func (c *dnsServerConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.request.Write(p)
	for {
		buffered := c.request.Bytes()
		if len(buffered) < 2 {
			return len(p), nil
		}
		msgLen := int(buffered[0])<<8 | int(buffered[1])
		if len(buffered) < 2+msgLen {
			return len(p), nil
		}
		query := make([]byte, msgLen)
		c.request.Next(2)
		c.request.Read(query)
		answer := c.answer(query)
		c.response.Write([]byte{byte(len(answer) >> 8), byte(len(answer))})
		c.response.Write(answer)
	}
}

func (c *dnsServerConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.response.Len() == 0 {
		return 0, io.EOF
	}
	return c.response.Read(p)
}

func (c *dnsServerConn) answer(query []byte) []byte {
	var parser dnsmessage.Parser
	header, err := parser.Start(query)
	if err != nil {
		return nil
	}
	question, err := parser.Question()
	if err != nil {
		return nil
	}
	name := strings.TrimSuffix(question.Name.String(), ".")

	texts, found := c.records[name]
	responseHeader := dnsmessage.Header{
		ID:            header.ID,
		Response:      true,
		Authoritative: true,
	}
	switch {
	case c.failing[name]:
		responseHeader.RCode = dnsmessage.RCodeServerFailure
		texts = nil
	case !found:
		responseHeader.RCode = dnsmessage.RCodeNameError
	}

	builder := dnsmessage.NewBuilder(nil, responseHeader)
	builder.EnableCompression()
	if err := builder.StartQuestions(); err != nil {
		return nil
	}
	if err := builder.Question(question); err != nil {
		return nil
	}
	if err := builder.StartAnswers(); err != nil {
		return nil
	}
	for _, text := range texts {
		err := builder.TXTResource(
			dnsmessage.ResourceHeader{
				Name:  question.Name,
				Type:  dnsmessage.TypeTXT,
				Class: dnsmessage.ClassINET,
				TTL:   60,
			},
			dnsmessage.TXTResource{TXT: []string{text}},
		)
		if err != nil {
			return nil
		}
	}
	packed, err := builder.Finish()
	if err != nil {
		return nil
	}
	return packed
}

func (c *dnsServerConn) Close() error                     { return nil }
func (c *dnsServerConn) LocalAddr() net.Addr              { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }
func (c *dnsServerConn) RemoteAddr() net.Addr             { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }
func (c *dnsServerConn) SetDeadline(time.Time) error      { return nil }
func (c *dnsServerConn) SetReadDeadline(time.Time) error  { return nil }
func (c *dnsServerConn) SetWriteDeadline(time.Time) error { return nil }

func TestResolveTXTTwoLevelDiscovery(t *testing.T) {
	t.Parallel()

	resolver := dnstxt.New(fakeZone(map[string][]string{
		"txt.us-east-1.registry.example.com": {
			"us-east-1a.registry.example.com us-east-1b.registry.example.com",
		},
		"txt.us-east-1a.registry.example.com": {"server-a.example.com server-b.example.com"},
		"txt.us-east-1b.registry.example.com": {"server-c.example.com"},
	}), nil)

	endpoints, err := resolver.ResolveTXT(
		context.Background(), "us-east-1", "txt.us-east-1.registry.example.com", 8080, "/v2/")
	require.NoError(t, err)

	expected := []endpoint.Endpoint{
		{Region: "us-east-1", Zone: "us-east-1a", ServiceURL: "http://server-a.example.com:8080/v2/"},
		{Region: "us-east-1", Zone: "us-east-1a", ServiceURL: "http://server-b.example.com:8080/v2/"},
		{Region: "us-east-1", Zone: "us-east-1b", ServiceURL: "http://server-c.example.com:8080/v2/"},
	}
	assert.Equal(t, expected, endpoints)
}

func TestResolveTXTSplitsNamesAcrossRecords(t *testing.T) {
	t.Parallel()

	resolver := dnstxt.New(fakeZone(map[string][]string{
		"txt.us-east-1.registry.example.com":  {"us-east-1a.registry.example.com"},
		"txt.us-east-1a.registry.example.com": {"server-a.example.com", "server-b.example.com"},
	}), nil)

	endpoints, err := resolver.ResolveTXT(
		context.Background(), "us-east-1", "txt.us-east-1.registry.example.com", 7001, "v2/")
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "http://server-a.example.com:7001/v2/", endpoints[0].ServiceURL)
	assert.Equal(t, "http://server-b.example.com:7001/v2/", endpoints[1].ServiceURL)
}

func TestResolveTXTMissingTopLevelRecordResolvesEmpty(t *testing.T) {
	t.Parallel()

	resolver := dnstxt.New(fakeZone(map[string][]string{}), nil)

	endpoints, err := resolver.ResolveTXT(
		context.Background(), "us-east-1", "txt.us-east-1.registry.example.com", 8080, "/v2/")
	require.NoError(t, err, "an absent record is an empty result, not a failure")
	assert.Empty(t, endpoints)
}

func TestResolveTXTTopLevelServerFailureIsAnError(t *testing.T) {
	t.Parallel()

	resolver := dnstxt.New(
		failingZone(map[string][]string{}, "txt.us-east-1.registry.example.com"), nil)

	_, err := resolver.ResolveTXT(
		context.Background(), "us-east-1", "txt.us-east-1.registry.example.com", 8080, "/v2/")
	assert.Error(t, err)
}

func TestResolveTXTSkipsZoneWithFailingLookup(t *testing.T) {
	t.Parallel()

	resolver := dnstxt.New(failingZone(map[string][]string{
		"txt.us-east-1.registry.example.com": {
			"us-east-1a.registry.example.com us-east-1b.registry.example.com",
		},
		"txt.us-east-1b.registry.example.com": {"server-c.example.com"},
	}, "txt.us-east-1a.registry.example.com"), nil)

	endpoints, err := resolver.ResolveTXT(
		context.Background(), "us-east-1", "txt.us-east-1.registry.example.com", 8080, "/v2/")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "us-east-1b", endpoints[0].Zone)
	assert.Equal(t, "http://server-c.example.com:8080/v2/", endpoints[0].ServiceURL)
}

func TestResolveTXTEmptyZoneListResolvesEmpty(t *testing.T) {
	t.Parallel()

	resolver := dnstxt.New(fakeZone(map[string][]string{
		"txt.us-east-1.registry.example.com": {},
	}), nil)

	endpoints, err := resolver.ResolveTXT(
		context.Background(), "us-east-1", "txt.us-east-1.registry.example.com", 8080, "/v2/")
	require.NoError(t, err)
	assert.Empty(t, endpoints)
}
