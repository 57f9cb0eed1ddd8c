// Package http は外部サービス呼び出し用のHTTPクライアントを提供します。
package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// UserAgent は外部呼び出しで送るUser-Agentです。
const UserAgent = "company-analyzer/1.0"

// ErrNonPublicAddress は公開されていない宛先への接続を拒否したことを示します。
var ErrNonPublicAddress = errors.New("destination address is not public")

// sharedAddressSpace はキャリアグレードNAT用のアドレス帯です（RFC 6598）。
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト（デフォルトより短い）
//   - MaxIdleConnsPerHost: 分析サービスなど同一ホストへの並列呼び出し向けに拡張
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//   - User-Agent: 未設定のリクエストにUserAgentを付与
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため、常にカスタムクライアントを使用すること
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := newTransport(&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	})
	t.Proxy = http.ProxyFromEnvironment
	return &http.Client{Timeout: timeout, Transport: &userAgentTransport{next: t, ua: UserAgent}}
}

// NewPublicHTTPClient は公開アドレスにのみ接続するHTTPクライアントを作成します。
// 外部から得たURL（モデルの回答など）を取得する場合に使用します。
//
// 接続先の検査はDNS解決後のアドレスに対して行うため、リダイレクト先も対象になります。
// プロキシ経由では検査できないため、環境変数のプロキシ設定は使用しません。
func NewPublicHTTPClient(timeout time.Duration) *http.Client {
	t := newTransport(&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnly,
	})
	return &http.Client{Timeout: timeout, Transport: &userAgentTransport{next: t, ua: UserAgent}}
}

func newTransport(d *net.Dialer) *http.Transport {
	return &http.Transport{
		DialContext:         d.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
}

// publicOnly は net.Dialer.Control として、公開アドレス以外への接続を拒否します。
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNonPublicAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !IsPublicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrNonPublicAddress, host)
	}
	return nil
}

// IsPublicAddr はipがインターネット上で到達可能なユニキャストアドレスかどうかを返します。
// ループバック・プライベート・リンクローカル・CGNAT・マルチキャスト・未指定アドレスはfalseです。
func IsPublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	if !ip.IsValid() {
		return false
	}
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	}
	return !sharedAddressSpace.Contains(ip)
}

// userAgentTransport はUser-Agentヘッダーが空のリクエストに既定値を設定します。
type userAgentTransport struct {
	next http.RoundTripper
	ua   string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(r)
}
