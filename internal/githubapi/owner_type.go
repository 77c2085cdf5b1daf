package githubapi

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ownerTypeUserConstant              OwnerType = "user"
	ownerTypeOrganizationConstant      OwnerType = "org"
	ownerTypeEmptyErrorMessageConstant           = "owner type must be provided"
	ownerTypeInvalidTemplateConstant             = "owner type %q is not supported"
	authenticatedUserOwnerConstant               = ""
)

// OwnerType enumerates the account kinds that can own destination repositories.
type OwnerType string

// UserOwnerType creates repositories under the authenticated user.
const UserOwnerType OwnerType = ownerTypeUserConstant

// OrganizationOwnerType creates repositories under an organization.
const OrganizationOwnerType OwnerType = ownerTypeOrganizationConstant

// ParseOwnerType normalizes textual owner type values. "organization" is accepted as an alias of "org".
func ParseOwnerType(ownerTypeValue string) (OwnerType, error) {
	trimmedValue := strings.TrimSpace(ownerTypeValue)
	if len(trimmedValue) == 0 {
		return "", errors.New(ownerTypeEmptyErrorMessageConstant)
	}

	switch lowerCasedValue := strings.ToLower(trimmedValue); lowerCasedValue {
	case string(UserOwnerType):
		return UserOwnerType, nil
	case string(OrganizationOwnerType), "organization":
		return OrganizationOwnerType, nil
	default:
		return "", fmt.Errorf(ownerTypeInvalidTemplateConstant, ownerTypeValue)
	}
}

// creationOwner returns the owner argument for repository creation; the API expects an empty owner for user accounts.
func (ownerType OwnerType) creationOwner(owner string) string {
	if ownerType == UserOwnerType {
		return authenticatedUserOwnerConstant
	}
	return owner
}
