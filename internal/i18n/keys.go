// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired      = "auth.required"
	KeyAuthInvalidToken  = "auth.invalid_token"
	KeyAuthTokenExpired  = "auth.token_expired"
	KeyAdminAccessDenied = "admin.access_denied"

	// Request
	KeyRequestTimeout     = "request.timeout"
	KeyRequestRateLimited = "request.rate_limited"
	KeyInternalError      = "error.internal"

	// Search
	KeySearchTimeout   = "search.timeout"
	KeySearchFailed    = "search.failed"
	KeySearchNoResults = "search.no_results"

	// Identification
	KeyIdentifyNotIdentified   = "identify.not_identified"
	KeyIdentifyLowConfidence   = "identify.low_confidence"
	KeyIdentifyServerSlow      = "identify.server_slow"
	KeyIdentifyImageRequired   = "identify.image_required"
	KeyIdentifySlugRequired    = "identify.slug_required"
	KeyAIRateLimited           = "ai.rate_limited"
	KeyAIPaymentRequired       = "ai.payment_required"
	KeyAIGatewayError          = "ai.gateway_error"
	KeyAIMalformed             = "ai.malformed"
	KeyBeybladeNotFound        = "beyblade.not_found"
	KeyBeybladeNameRequired    = "beyblade.name_required"
	KeyBeybladeDuplicateName   = "beyblade.duplicate_name"
	KeyBeybladeNotIdentifiable = "beyblade.not_identified"

	// Collection
	KeyCollectionAdded         = "collection.added"
	KeyCollectionAlreadyOwned  = "collection.already_owned"
	KeyCollectionRemoved       = "collection.removed"
	KeyCollectionNotFound      = "collection.not_found"
	KeyCollectionUpdated       = "collection.updated"
	KeyCollectionInvalidSpin   = "collection.invalid_spin_direction"
	KeyCollectionPhotoRequired = "collection.photo_required"

	// Catalog admin
	KeyCatalogUpdated    = "catalog.updated"
	KeyCatalogRenamed    = "catalog.renamed"
	KeyCatalogReassigned = "catalog.reassigned"

	// Images
	KeyImageSlugRequired = "image.slug_required"
	KeyImageNotFound     = "image.not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationTooShort = "validation.too_short"
	KeyValidationTooLong  = "validation.too_long"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
)
