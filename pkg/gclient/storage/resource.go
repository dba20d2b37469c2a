/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package storage

import (
	"time"
)

// ObjectResource is the object metadata returned by the service. 64-bit
// integers travel as JSON strings.
type ObjectResource struct {
	Kind                    string                    `json:"kind,omitempty"`
	ID                      string                    `json:"id,omitempty"`
	SelfLink                string                    `json:"selfLink,omitempty"`
	Name                    string                    `json:"name"`
	Bucket                  string                    `json:"bucket"`
	Generation              int64                     `json:"generation,string,omitempty"`
	Metageneration          int64                     `json:"metageneration,string,omitempty"`
	ContentType             string                    `json:"contentType,omitempty"`
	TimeCreated             *time.Time                `json:"timeCreated,omitempty"`
	Updated                 *time.Time                `json:"updated,omitempty"`
	TimeDeleted             *time.Time                `json:"timeDeleted,omitempty"`
	TemporaryHold           bool                      `json:"temporaryHold,omitempty"`
	EventBasedHold          bool                      `json:"eventBasedHold,omitempty"`
	RetentionExpirationTime *time.Time                `json:"retentionExpirationTime,omitempty"`
	StorageClass            string                    `json:"storageClass,omitempty"`
	TimeStorageClassUpdated *time.Time                `json:"timeStorageClassUpdated,omitempty"`
	Size                    uint64                    `json:"size,string,omitempty"`
	MD5Hash                 string                    `json:"md5Hash,omitempty"`
	MediaLink               string                    `json:"mediaLink,omitempty"`
	ContentEncoding         string                    `json:"contentEncoding,omitempty"`
	ContentDisposition      string                    `json:"contentDisposition,omitempty"`
	ContentLanguage         string                    `json:"contentLanguage,omitempty"`
	CacheControl            string                    `json:"cacheControl,omitempty"`
	Metadata                map[string]string         `json:"metadata,omitempty"`
	ACL                     []ObjectAccessControl     `json:"acl,omitempty"`
	Owner                   *ObjectOwner              `json:"owner,omitempty"`
	CRC32C                  string                    `json:"crc32c,omitempty"`
	ComponentCount          int                       `json:"componentCount,omitempty"`
	ETag                    string                    `json:"etag,omitempty"`
	CustomerEncryption      *ObjectCustomerEncryption `json:"customerEncryption,omitempty"`
	KMSKeyName              string                    `json:"kmsKeyName,omitempty"`
}

// Ref returns the identity of the described object.
func (r *ObjectResource) Ref() ObjectRef {
	return ObjectRef{Bucket: r.Bucket, Name: r.Name}
}

// ObjectCustomerEncryption describes a customer-supplied encryption key.
type ObjectCustomerEncryption struct {
	EncryptionAlgorithm string `json:"encryptionAlgorithm,omitempty"`
	KeySHA256           string `json:"keySha256,omitempty"`
}

// ObjectOwner is the entity that owns an object.
type ObjectOwner struct {
	Entity   string `json:"entity,omitempty"`
	EntityID string `json:"entityId,omitempty"`
}

// ObjectAccessControl is one entry of an object's ACL.
type ObjectAccessControl struct {
	Kind        string       `json:"kind,omitempty"`
	ID          string       `json:"id,omitempty"`
	SelfLink    string       `json:"selfLink,omitempty"`
	Bucket      string       `json:"bucket,omitempty"`
	Object      string       `json:"object,omitempty"`
	Generation  int64        `json:"generation,string,omitempty"`
	Entity      string       `json:"entity,omitempty"`
	Role        string       `json:"role,omitempty"`
	Email       string       `json:"email,omitempty"`
	EntityID    string       `json:"entityId,omitempty"`
	Domain      string       `json:"domain,omitempty"`
	ProjectTeam *ProjectTeam `json:"projectTeam,omitempty"`
	ETag        string       `json:"etag,omitempty"`
}

// ProjectTeam identifies a project team in an ACL entry.
type ProjectTeam struct {
	ProjectNumber string `json:"projectNumber,omitempty"`
	Team          string `json:"team,omitempty"`
}

type objectList struct {
	Items         []*ObjectResource `json:"items,omitempty"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}
