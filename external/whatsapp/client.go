// Package whatsapp implements messaging.Transport on top of whatsmeow.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/gunkan/internal/messaging"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

const pairingCodeWait = 30 * time.Second

// Client owns one whatsmeow client. Reconnects are driven by the session
// manager, so whatsmeow's own auto reconnect stays off.
type Client struct {
	container  *sqlstore.Container
	log        waLog.Logger
	deviceName string

	mu            sync.RWMutex
	cli           *whatsmeow.Client
	handlers      messaging.Handlers
	cancelPairing context.CancelFunc
}

var _ messaging.Transport = (*Client)(nil)

func NewClient(ctx context.Context, container *sqlstore.Container, deviceName string, log waLog.Logger) (*Client, error) {
	if deviceName != "" {
		store.DeviceProps.Os = proto.String(deviceName)
	}
	c := &Client{container: container, log: log, deviceName: deviceName}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}
	c.cli = c.newWhatsmeowClient(device)
	return c, nil
}

func (c *Client) newWhatsmeowClient(device *store.Device) *whatsmeow.Client {
	cli := whatsmeow.NewClient(device, c.log.Sub("Client"))
	cli.EnableAutoReconnect = false
	cli.AddEventHandler(c.handleEvent)
	return cli
}

func (c *Client) client() *whatsmeow.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cli
}

func (c *Client) Subscribe(h messaging.Handlers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = h
}

func (c *Client) HasCredentials() bool {
	return c.client().Store.ID != nil
}

func (c *Client) Connect(_ context.Context) error {
	cli := c.client()
	if cli.IsConnected() {
		return nil
	}
	return cli.Connect()
}

// RequestPairingCode opens an unauthenticated connection and links the
// device by phone number. The returned code is typed on the phone.
func (c *Client) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	cli := c.client()
	if cli.Store.ID != nil {
		return "", messaging.ErrAlreadyPaired
	}
	cli.Disconnect()

	c.mu.Lock()
	if c.cancelPairing != nil {
		c.cancelPairing()
	}
	pairCtx, cancel := context.WithCancel(context.Background())
	c.cancelPairing = cancel
	c.mu.Unlock()

	qr, err := cli.GetQRChannel(pairCtx)
	if err != nil {
		cancel()
		return "", fmt.Errorf("open pairing channel: %w", err)
	}
	if err := cli.Connect(); err != nil {
		cancel()
		return "", fmt.Errorf("connect for pairing: %w", err)
	}

	waitCtx, stop := context.WithTimeout(ctx, pairingCodeWait)
	defer stop()
	select {
	case item, ok := <-qr:
		if !ok || item.Event != whatsmeow.QRChannelEventCode {
			cancel()
			cli.Disconnect()
			return "", fmt.Errorf("pairing channel: unexpected event %q", item.Event)
		}
	case <-waitCtx.Done():
		cancel()
		cli.Disconnect()
		return "", fmt.Errorf("waiting for pairing channel: %w", waitCtx.Err())
	}

	code, err := cli.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, c.deviceName)
	if err != nil {
		cancel()
		cli.Disconnect()
		return "", fmt.Errorf("pair phone: %w", err)
	}
	go c.watchPairing(qr)
	return code, nil
}

// watchPairing reports an expired or failed pairing as a recoverable
// close; success is reported through the Connected event.
func (c *Client) watchPairing(qr <-chan whatsmeow.QRChannelItem) {
	for item := range qr {
		switch item.Event {
		case whatsmeow.QRChannelEventCode, whatsmeow.QRChannelSuccess.Event:
		case whatsmeow.QRChannelTimeout.Event:
			c.emitConnection(closed(false, "pairing code expired"))
		case whatsmeow.QRChannelEventError:
			c.emitConnection(closed(false, fmt.Sprintf("pairing failed: %v", item.Error)))
		default:
			c.emitConnection(closed(false, "pairing failed: "+item.Event))
		}
	}
}

// Logout unlinks the device and prepares a fresh one for the next pairing.
// A banned or replaced session cannot reach the server, so the device row
// is then deleted locally.
func (c *Client) Logout(ctx context.Context) error {
	cli := c.client()
	if err := cli.Logout(ctx); err != nil {
		slog.Warn("whatsapp logout failed, deleting local device", "error", err)
		cli.Disconnect()
		if derr := c.container.DeleteDevice(ctx, cli.Store); derr != nil {
			return errors.Join(err, fmt.Errorf("delete device: %w", derr))
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cli = c.newWhatsmeowClient(c.container.NewDevice())
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.cancelPairing != nil {
		c.cancelPairing()
		c.cancelPairing = nil
	}
	cli := c.cli
	c.mu.Unlock()
	cli.Disconnect()
	return nil
}

func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	jid, err := toJID(chatID)
	if err != nil {
		return err
	}
	_, err = c.client().SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	return err
}

func (c *Client) UpdateParticipants(ctx context.Context, groupID string, targets []string, action messaging.ParticipantAction) error {
	change, ok := participantChange(action)
	if !ok {
		return fmt.Errorf("unsupported participant action %q", action)
	}
	group, err := toJID(groupID)
	if err != nil {
		return err
	}
	jids := make([]types.JID, 0, len(targets))
	for _, t := range targets {
		j, err := toJID(t)
		if err != nil {
			return err
		}
		jids = append(jids, j)
	}
	results, err := c.client().UpdateGroupParticipants(ctx, group, jids, change)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Error != 0 {
			return fmt.Errorf("%s %s: error code %d", change, r.JID, r.Error)
		}
	}
	return nil
}

func (c *Client) SetGroupAnnounce(ctx context.Context, groupID string, announce bool) error {
	group, err := toJID(groupID)
	if err != nil {
		return err
	}
	return c.client().SetGroupAnnounce(ctx, group, announce)
}

func (c *Client) FetchAllGroupsMetadata(ctx context.Context) (map[string]messaging.GroupMetadata, error) {
	cli := c.client()
	groups, err := cli.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	self, selfLID := c.self(cli)
	out := make(map[string]messaging.GroupMetadata, len(groups))
	for _, g := range groups {
		meta := groupMetadata(g, self, selfLID)
		out[meta.ID] = meta
	}
	return out, nil
}

func (c *Client) FetchGroupMetadata(ctx context.Context, groupID string) (messaging.GroupMetadata, error) {
	group, err := toJID(groupID)
	if err != nil {
		return messaging.GroupMetadata{}, err
	}
	cli := c.client()
	info, err := cli.GetGroupInfo(ctx, group)
	if err != nil {
		return messaging.GroupMetadata{}, err
	}
	self, selfLID := c.self(cli)
	return groupMetadata(info, self, selfLID), nil
}

func (c *Client) self(cli *whatsmeow.Client) (types.JID, types.JID) {
	var self types.JID
	if cli.Store.ID != nil {
		self = cli.Store.ID.ToNonAD()
	}
	return self, cli.Store.LID.ToNonAD()
}

func (c *Client) handleEvent(evt any) {
	if u, ok := connectionUpdate(evt); ok {
		slog.Debug("whatsapp connection event", "kind", string(u.Kind), "fatal", u.Reason.Fatal, "detail", u.Reason.Detail)
		c.emitConnection(u)
		return
	}
	switch e := evt.(type) {
	case *events.Message:
		msg, ok := inboundMessage(e)
		if !ok {
			return
		}
		c.mu.RLock()
		h := c.handlers.OnInboundMessage
		c.mu.RUnlock()
		if h != nil {
			h(msg)
		}
	case *events.GroupInfo:
		c.mu.RLock()
		h := c.handlers.OnParticipantsUpdate
		c.mu.RUnlock()
		if h == nil {
			return
		}
		for _, u := range participantsUpdates(e) {
			h(u)
		}
	}
}

func (c *Client) emitConnection(u messaging.ConnectionUpdate) {
	c.mu.RLock()
	h := c.handlers.OnConnectionUpdate
	c.mu.RUnlock()
	if h != nil {
		h(u)
	}
}
