package handler

import (
	"strings"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
)

// CreateProjectRequest is the body for POST /projects.
type CreateProjectRequest struct {
	Goal        int64  `json:"goal"`
	MetadataRef string `json:"metadata_ref"`
	Admin       string `json:"admin,omitempty"`

	parsedMetadataRef id.ContentHash
	parsedAdmin       id.AccountID
}

func (r *CreateProjectRequest) Validate() error {
	if r.Goal <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "goal must be a positive number of subunits")
	}
	r.MetadataRef = strings.TrimSpace(r.MetadataRef)
	if r.MetadataRef != "" {
		ref, err := id.ParseContentHash(r.MetadataRef)
		if err != nil {
			return err
		}
		r.parsedMetadataRef = ref
	}
	r.Admin = strings.TrimSpace(r.Admin)
	if r.Admin != "" {
		admin, err := id.ParseAccountID(r.Admin)
		if err != nil {
			return err
		}
		r.parsedAdmin = admin
	}
	return nil
}

func (r *CreateProjectRequest) ParsedMetadataRef() id.ContentHash { return r.parsedMetadataRef }
func (r *CreateProjectRequest) ParsedAdmin() id.AccountID         { return r.parsedAdmin }

// DonationRequest is the body for POST /projects/{projectID}/donations.
// An empty asset means the native asset.
type DonationRequest struct {
	Amount int64  `json:"amount"`
	Asset  string `json:"asset,omitempty"`

	parsedAsset id.AssetID
}

func (r *DonationRequest) Validate() error {
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be a positive number of subunits")
	}
	r.Asset = strings.TrimSpace(r.Asset)
	if r.Asset == "" {
		r.parsedAsset = id.NativeAsset
		return nil
	}
	asset, err := id.ParseAssetID(r.Asset)
	if err != nil {
		return err
	}
	r.parsedAsset = asset
	return nil
}

func (r *DonationRequest) ParsedAsset() id.AssetID { return r.parsedAsset }

// DirectTransferRequest is the body for POST /projects/{projectID}/direct-transfers.
type DirectTransferRequest struct {
	Amount int64 `json:"amount"`
}

func (r *DirectTransferRequest) Validate() error {
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be a positive number of subunits")
	}
	return nil
}

// StatusRequest is the body for POST /projects/{projectID}/status.
type StatusRequest struct {
	Status string `json:"status"`

	parsedStatus models.ProjectStatus
}

func (r *StatusRequest) Validate() error {
	status, err := models.ParseProjectStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

func (r *StatusRequest) ParsedStatus() models.ProjectStatus { return r.parsedStatus }

// EvidenceRequest is the body for POST /projects/{projectID}/evidence.
type EvidenceRequest struct {
	Hash string `json:"hash"`

	parsedHash id.ContentHash
}

func (r *EvidenceRequest) Validate() error {
	hash, err := id.ParseContentHash(strings.TrimSpace(r.Hash))
	if err != nil {
		return err
	}
	r.parsedHash = hash
	return nil
}

func (r *EvidenceRequest) ParsedHash() id.ContentHash { return r.parsedHash }

// RefundRequest is the body for POST /projects/{projectID}/refunds. Either a
// single donor is named or the full sweep is requested.
type RefundRequest struct {
	Donor string `json:"donor,omitempty"`
	All   bool   `json:"all,omitempty"`

	parsedDonor id.AccountID
}

func (r *RefundRequest) Validate() error {
	r.Donor = strings.TrimSpace(r.Donor)
	if r.All {
		if r.Donor != "" {
			return dErrors.New(dErrors.CodeValidation, "donor and all are mutually exclusive")
		}
		return nil
	}
	if r.Donor == "" {
		return dErrors.New(dErrors.CodeValidation, "either donor or all is required")
	}
	donor, err := id.ParseAccountID(r.Donor)
	if err != nil {
		return err
	}
	r.parsedDonor = donor
	return nil
}

func (r *RefundRequest) ParsedDonor() id.AccountID { return r.parsedDonor }

// EvaluateBadgesRequest is the optional body for POST /donors/{accountID}/badges.
// The metadata reference is prepared off-platform before the trigger is called.
type EvaluateBadgesRequest struct {
	MetadataRef string `json:"metadata_ref,omitempty"`

	parsedMetadataRef id.ContentHash
}

func (r *EvaluateBadgesRequest) Validate() error {
	r.MetadataRef = strings.TrimSpace(r.MetadataRef)
	if r.MetadataRef == "" {
		return nil
	}
	ref, err := id.ParseContentHash(r.MetadataRef)
	if err != nil {
		return err
	}
	r.parsedMetadataRef = ref
	return nil
}

func (r *EvaluateBadgesRequest) ParsedMetadataRef() id.ContentHash { return r.parsedMetadataRef }

// FeeRequest is the body for PUT /admin/fee.
type FeeRequest struct {
	FeeBasisPoints int64 `json:"fee_basis_points"`
}

// TreasuryRequest is the body for PUT /admin/treasury.
type TreasuryRequest struct {
	Treasury string `json:"treasury"`

	parsedTreasury id.AccountID
}

func (r *TreasuryRequest) Validate() error {
	treasury, err := id.ParseAccountID(strings.TrimSpace(r.Treasury))
	if err != nil {
		return err
	}
	r.parsedTreasury = treasury
	return nil
}

func (r *TreasuryRequest) ParsedTreasury() id.AccountID { return r.parsedTreasury }

// AllowAssetRequest is the body for POST /admin/allowlist.
type AllowAssetRequest struct {
	Asset string `json:"asset"`

	parsedAsset id.AssetID
}

func (r *AllowAssetRequest) Validate() error {
	asset, err := id.ParseAssetID(strings.TrimSpace(r.Asset))
	if err != nil {
		return err
	}
	r.parsedAsset = asset
	return nil
}

func (r *AllowAssetRequest) ParsedAsset() id.AssetID { return r.parsedAsset }

// AllowAllRequest is the body for PUT /admin/allowlist/allow-all.
type AllowAllRequest struct {
	Allow bool `json:"allow"`
}

// RoleRequest is the body for POST and DELETE /admin/roles.
type RoleRequest struct {
	Account string `json:"account"`
	Role    string `json:"role"`

	parsedAccount id.AccountID
	parsedRole    models.Role
}

func (r *RoleRequest) Validate() error {
	account, err := id.ParseAccountID(strings.TrimSpace(r.Account))
	if err != nil {
		return err
	}
	role, err := models.ParseRole(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}
	r.parsedAccount = account
	r.parsedRole = role
	return nil
}

func (r *RoleRequest) ParsedAccount() id.AccountID { return r.parsedAccount }
func (r *RoleRequest) ParsedRole() models.Role     { return r.parsedRole }
