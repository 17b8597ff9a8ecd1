package ui

import (
	"strings"

	"github.com/Mohsinsiddi/w3giveaway/internal/auth"
)

// GateView holds what the gate screens need to know.
type GateView struct {
	State       auth.RenderState
	Account     string
	NetworkName string
	Frame       string
}

// ConnectPrompt is shown while no wallet is connected.
func ConnectPrompt() string {
	return StyleBorder.Render(StyleTitle.Render("Connect your wallet") + "\n" +
		Meta("Only the contract owner and admins can use this console.") + "\n\n" +
		Hint("press c to connect"))
}

// CheckingScreen is shown while roles are being read.
func CheckingScreen(frame string) string {
	return StyleChain.Render(frame) + "  " + Meta("checking authorization…")
}

// DeniedScreen is the full-screen denial for an account without a role.
func DeniedScreen(account string) string {
	var sb strings.Builder
	sb.WriteString(StyleError.Render("Access denied") + "\n\n")
	sb.WriteString("The connected account " + Addr(TruncateAddr(account)) + " is neither the owner nor an admin.\n\n")
	sb.WriteString(Hint("press x to disconnect, or r to retry with another account"))
	return StyleDenied.Render(sb.String())
}

// WrongNetworkNotice names the network the wallet must switch to.
func WrongNetworkNotice(networkName string) string {
	return Warn("Wrong network. Please switch to " + networkName + " network.")
}

// RenderGate picks the screen for v. content is shown only when authorized.
func RenderGate(v GateView, content func() string) string {
	var out string
	switch v.State {
	case auth.NotConnected:
		out = ConnectPrompt()
	case auth.Checking:
		out = CheckingScreen(v.Frame)
	case auth.Denied:
		out = DeniedScreen(v.Account)
	case auth.WrongNetwork:
		out = StyleBorder.Render(WrongNetworkNotice(v.NetworkName) + "\n\n" +
			Hint("switch networks in your wallet, or run `w3giveaway network switch`"))
	case auth.Authorized:
		out = content()
	}
	return out
}
