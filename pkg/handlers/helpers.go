package handlers

import (
	"errors"
	"net/http"

	"warehouse-sim-api/pkg/models"

	"github.com/gin-gonic/gin"
)

// HealthCheck は外部のヘルスチェッカー（例: ロードバランサー）からのリクエストに応答します。
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusForError はドメインエラーをHTTPステータスに対応付ける。
// 入力起因のエラー（未知カテゴリ・未知イベント・シェイプ不一致）は400、
// それ以外は500として扱う。
func statusForError(err error) int {
	var unknownCategory *models.UnknownCategoryError
	var unknownEvent *models.UnknownEventError
	var shapeMismatch *models.ShapeMismatchError

	switch {
	case errors.As(err, &unknownCategory),
		errors.As(err, &unknownEvent),
		errors.As(err, &shapeMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError はエラーを共通フォーマットで返す
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
