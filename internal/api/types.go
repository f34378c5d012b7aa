package api

import "time"

// Collection groups galleries for one shoot or client engagement.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Gallery is a set of photos delivered to one client.
type Gallery struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collectionId"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Sharing      Sharing   `json:"sharing"`
}

// Sharing is the gallery's share-link state as stored by the backend.
type Sharing struct {
	SharingEnabled    bool      `json:"sharingEnabled"`
	SharingExpiryDate time.Time `json:"sharingExpiryDate"`
	AccessToken       string    `json:"accessToken"`
	SharingURL        string    `json:"sharingUrl"`
}

// Photo is a confirmed (or pending) photo record in a gallery.
type Photo struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"originalFilename"`
	URL              string `json:"url"`
	ThumbnailURL     string `json:"thumbnailUrl"`
}

// UploadRequest asks the backend for one upload grant, one per local file.
type UploadRequest struct {
	OriginalFilename string `json:"originalFilename"`
}

// UploadGrant is a one-time authorization to push a file directly to
// object storage. The backend has already created a placeholder photo
// record in a pending state under ID; the grant is consumed by one storage
// POST and a confirm call, or abandoned.
type UploadGrant struct {
	ID                   string        `json:"id"`
	OriginalFilename     string        `json:"originalFilename"`
	PresignedPostRequest PresignedPost `json:"presignedPostRequest"`
}

// PresignedPost carries the storage POST target and the form fields the
// storage provider requires verbatim in the multipart body.
type PresignedPost struct {
	URL    string            `json:"URL"`
	Values map[string]string `json:"Values"`
}

// ShareLink is an issued gallery share: the anonymous access credential,
// its expiry, and the URL handed to the client.
type ShareLink struct {
	GalleryID     string    `json:"galleryId"`
	AccessToken   string    `json:"accessToken"`
	SharingExpiry time.Time `json:"sharingExpiry"`
	ShareURL      string    `json:"shareUrl"`
}

// OrderStatus is the lifecycle state of a client order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// Order is a client's photo selection for a gallery.
type Order struct {
	ID          string       `json:"id"`
	GalleryID   string       `json:"galleryId"`
	ClientEmail string       `json:"clientEmail"`
	Comment     string       `json:"comment"`
	Status      OrderStatus  `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Photos      []OrderPhoto `json:"photos"`
}

// OrderPhoto references one selected photo within an order.
type OrderPhoto struct {
	PhotoID string `json:"photoId"`
}
