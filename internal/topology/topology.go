// Package topology decides how the VPN sidecar and the download client
// share networking for a given selection.
package topology

import (
	"fmt"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/model"
)

// Plan is the resolved network layout of a stack.
type Plan struct {
	VPNActive               bool
	VPNServiceID            string
	DownloadClientID        string
	DownloadClientDelegates bool
	PortsTransferredToVPN   []model.PortBinding

	// VPNEnvironment is the sidecar's provider environment, empty unless
	// the sidecar is active.
	VPNEnvironment []model.EnvVar
}

// DownloadClientHost is the hostname other containers use to reach the
// download client: the VPN sidecar when it owns the client's network.
func (p Plan) DownloadClientHost() string {
	if p.DownloadClientDelegates {
		return p.VPNServiceID
	}
	return p.DownloadClientID
}

// Delegated reports whether id runs inside the VPN sidecar's network.
func (p Plan) Delegated(id string) bool {
	return p.DownloadClientDelegates && id == p.DownloadClientID
}

// Resolve computes the Plan for selection. It never mutates its inputs.
//
// The sidecar is active only when the VPN is enabled and the sidecar is
// selected. The download client delegates its network only when the VPN is
// active, routing was requested and the client is selected; a routing
// request without a selected client is ignored.
func Resolve(cat *catalog.Catalog, selection model.Selection, vpn model.VPNConfig, downloadClientID string) (Plan, error) {
	for _, id := range selection {
		if !cat.Has(id) {
			return Plan{}, &catalog.ConsistencyError{ID: id, Reason: "not in the service catalog"}
		}
	}

	plan := Plan{DownloadClientID: downloadClientID}

	sidecarSelected := selection.Contains(model.VPNSidecarID)
	if vpn.Enabled() && vpn.RouteDownloadClient() && !sidecarSelected {
		return Plan{}, &catalog.ConsistencyError{
			ID:     model.VPNSidecarID,
			Reason: "download client routing requested but the VPN sidecar is not selected",
		}
	}

	if !vpn.Enabled() || !sidecarSelected {
		return plan, nil
	}
	plan.VPNActive = true
	plan.VPNServiceID = model.VPNSidecarID
	plan.VPNEnvironment = vpn.EnvironmentVars()

	if !vpn.RouteDownloadClient() || !selection.Contains(downloadClientID) {
		return plan, nil
	}

	client, ok := cat.Get(downloadClientID)
	if !ok {
		return Plan{}, &catalog.ConsistencyError{ID: downloadClientID, Reason: "download client not in the service catalog"}
	}
	plan.DownloadClientDelegates = true
	plan.PortsTransferredToVPN = transferredPorts(client)
	return plan, nil
}

// transferredPorts re-homes every port of the download client onto the
// sidecar, annotated with the client's name.
func transferredPorts(client catalog.Descriptor) []model.PortBinding {
	var out []model.PortBinding
	if client.HasPrimaryPort() {
		out = append(out, model.PortBinding{
			Mapping: model.SamePort(client.PrimaryPort, "tcp"),
			Comment: client.DisplayName + " Web UI",
		})
	}
	for _, ep := range client.ExtraPorts {
		if ep.Annotated() {
			out = append(out, model.PortBinding{
				Mapping: ep.Mapping,
				Comment: fmt.Sprintf("%s: %s", client.DisplayName, ep.Comment),
			})
			continue
		}
		out = append(out,
			model.PortBinding{Mapping: model.SamePort(ep.Port, "tcp"), Comment: client.DisplayName},
			model.PortBinding{Mapping: model.SamePort(ep.Port, "udp")},
		)
	}
	return out
}
