package middlewarex

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"dealmint/pkg/contextx"
	"dealmint/pkg/logx"
)

const headerNameWalletAddress = "X-Wallet-Address"

// WalletAddress puts the connected wallet announced by the client into the
// context. Malformed addresses are ignored.
func WalletAddress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.Header.Get(headerNameWalletAddress)

		if address == "" || !common.IsHexAddress(address) {
			next.ServeHTTP(w, r)

			return
		}

		checksummed := common.HexToAddress(address).Hex()

		ctx := contextx.WithCreatorAddress(r.Context(), contextx.CreatorAddress(checksummed))
		ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldWallet, checksummed)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
