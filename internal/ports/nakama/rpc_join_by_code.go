package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"mahjongg/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// JoinByCodeRequest resolves a table invite code.
type JoinByCodeRequest struct {
	Code string `json:"code"`
}

// JoinByCodeResponse carries the match to join and a signed invite token the
// client presents in its join metadata.
type JoinByCodeResponse struct {
	MatchID     string `json:"match_id"`
	InviteToken string `json:"invite_token"`
}

func rpcJoinByCode(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req JoinByCodeRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return "", runtime.NewError("invite code is required", 3)
	}

	query := "+label.game:mahjongg +label.code:" + code

	limit := 1
	authoritative := true
	matches, err := nk.MatchList(ctx, limit, authoritative, "", nil, nil, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", runtime.NewError("failed to look up table", 13) // INTERNAL
	}
	if len(matches) == 0 {
		return "", runtime.NewError("no table found for that code", 5) // NOT_FOUND
	}

	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	invites := app.NewInviteService(env["mahjongg_invite_secret"], env["mahjongg_invite_issuer"], 0)

	token, err := invites.GenerateToken(matches[0].MatchId, code, userID)
	if err != nil {
		logger.Error("rpcJoinByCode: Failed to sign invite token: %v", err)
		return "", runtime.NewError("failed to issue invite token", 13)
	}

	resp := JoinByCodeResponse{MatchID: matches[0].MatchId, InviteToken: token}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
