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

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/endpoint"
	"github.com/registrymesh/discovery/resolver"
	"github.com/registrymesh/discovery/transport"
)

// instanceRecord is the wire shape of one instance in a VIP query
// response. Only what is needed to describe a resolved endpoint.
type instanceRecord struct {
	Region     string `json:"region"`
	Zone       string `json:"zone"`
	ServiceURL string `json:"serviceUrl"`
	Status     string `json:"status"`
}

const instanceStatusUp = "UP"

// instanceQuerier returns the querier composite resolvers use to ask a
// peer for the instances behind a VIP, defaulting to a VIP query over the
// raw transport.
func (o *options) instanceQuerier(transports transport.ClientFactory) resolver.InstanceQuerier {
	if o.querier != nil {
		return o.querier
	}
	return &vipQuerier{transports: transports, logger: o.logger}
}

type vipQuerier struct {
	transports transport.ClientFactory
	logger     *zap.Logger
}

func (q *vipQuerier) InstancesByVIP(ctx context.Context, server endpoint.Endpoint, vip string) ([]endpoint.Endpoint, error) {
	client, err := q.transports.NewClient(server)
	if err != nil {
		return nil, fmt.Errorf("creating client for %s: %w", server.ServiceURL, err)
	}
	defer client.Close()

	resp, err := client.Execute(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "vips/" + url.PathEscape(vip),
	})
	if err != nil {
		return nil, fmt.Errorf("querying VIP %q on %s: %w", vip, server.ServiceURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("querying VIP %q on %s: unexpected status %d", vip, server.ServiceURL, resp.StatusCode)
	}

	var records []instanceRecord
	if err := json.Unmarshal(resp.Body, &records); err != nil {
		return nil, fmt.Errorf("decoding VIP %q response: %w", vip, err)
	}

	endpoints := make([]endpoint.Endpoint, 0, len(records))
	for _, record := range records {
		if record.Status != "" && record.Status != instanceStatusUp {
			continue
		}
		resolved, err := endpoint.New(record.ServiceURL, record.Region, record.Zone)
		if err != nil {
			q.logger.Warn("dropping instance with invalid service URL",
				zap.String("vip", vip), zap.String("url", record.ServiceURL), zap.Error(err))
			continue
		}
		endpoints = append(endpoints, resolved)
	}
	return endpoints, nil
}
