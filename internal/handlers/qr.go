package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/cumbres/skisched/internal/db"
	"github.com/cumbres/skisched/internal/models"
)

// GET /qr/{id}.png — voucher QR for a booking. Ticketing prints these; the
// code opens the day board for the booking's date.
func VoucherQR(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	var b models.Booking
	if err := db.Conn().First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}

	url := "http://" + r.Host + "/day?date=" + fmtISODate(b.StartAt)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
