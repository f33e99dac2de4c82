package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/corruption"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/files"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/nonces"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/projects"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/records"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/userfiles"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/userprojects"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/users"
)

func (u *unit) Users() users.Repository               { return userRepo{u} }
func (u *unit) Projects() projects.Repository         { return projectRepo{u} }
func (u *unit) UserProjects() userprojects.Repository { return userProjectRepo{u} }
func (u *unit) Files() files.Repository               { return fileRepo{u} }
func (u *unit) UserFiles() userfiles.Repository       { return userFileRepo{u} }
func (u *unit) Nonces() nonces.Repository             { return nonceRepo{u} }
func (u *unit) ResetTokens() resettokens.Repository   { return resetTokenRepo{u} }
func (u *unit) Records() records.Repository           { return recordRepo{u} }
func (u *unit) Corruption() corruption.Repository     { return corruptionRepo{u} }

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

type userRepo struct{ u *unit }

func (r userRepo) Get(ctx context.Context, id string) (*models.User, error) {
	v, ok := r.u.get(tableUsers, id, models.UserGroup(id))
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v.(*models.User)
	return &c, nil
}

func (r userRepo) FindByEmail(ctx context.Context, emailLower string) (*models.User, error) {
	r.u.watch(models.EmailGroup(emailLower))
	found := r.u.scan(tableUsers, func(v any) bool {
		return v.(*models.User).EmailLower == emailLower
	})
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}
	c := *found[0].(*models.User)
	return &c, nil
}

func (r userRepo) Put(ctx context.Context, user *models.User) error {
	if old, ok := r.u.get(tableUsers, user.ID, models.UserGroup(user.ID)); ok {
		if prev := old.(*models.User).EmailLower; prev != user.EmailLower {
			r.u.bump(models.EmailGroup(prev))
		}
	}
	r.u.bump(models.EmailGroup(user.EmailLower))

	c := *user
	r.u.put(tableUsers, user.ID, models.UserGroup(user.ID), &c)
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	if old, ok := r.u.get(tableUsers, id, models.UserGroup(id)); ok {
		r.u.bump(models.EmailGroup(old.(*models.User).EmailLower))
	}
	r.u.del(tableUsers, id, models.UserGroup(id))
	return nil
}

type projectRepo struct{ u *unit }

func projectKey(id int64) string {
	return fmt.Sprintf("%d", id)
}

func (r projectRepo) Create(ctx context.Context, p *models.Project) (int64, error) {
	p.ID = r.u.allocateProjectID()
	c := *p
	r.u.put(tableProjects, projectKey(p.ID), models.ProjectGroup(p.ID), &c)
	return p.ID, nil
}

func (r projectRepo) Get(ctx context.Context, id int64) (*models.Project, error) {
	v, ok := r.u.get(tableProjects, projectKey(id), models.ProjectGroup(id))
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v.(*models.Project)
	return &c, nil
}

func (r projectRepo) Put(ctx context.Context, p *models.Project) error {
	if _, ok := r.u.get(tableProjects, projectKey(p.ID), models.ProjectGroup(p.ID)); !ok {
		return common.ErrorNotFound
	}
	c := *p
	r.u.put(tableProjects, projectKey(p.ID), models.ProjectGroup(p.ID), &c)
	return nil
}

func (r projectRepo) Delete(ctx context.Context, id int64) error {
	r.u.del(tableProjects, projectKey(id), models.ProjectGroup(id))
	return nil
}

type userProjectRepo struct{ u *unit }

func (r userProjectRepo) Get(ctx context.Context, userID string, projectID int64) (*models.UserProject, error) {
	v, ok := r.u.get(tableUserProjects, models.UserProjectKey(userID, projectID), models.UserGroup(userID))
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v.(*models.UserProject)
	return &c, nil
}

func (r userProjectRepo) Put(ctx context.Context, link *models.UserProject) error {
	c := *link
	r.u.put(tableUserProjects, models.UserProjectKey(link.UserID, link.ProjectID), models.UserGroup(link.UserID), &c)
	return nil
}

func (r userProjectRepo) ListByUser(ctx context.Context, userID string) ([]*models.UserProject, error) {
	r.u.watch(models.UserGroup(userID))
	found := r.u.scan(tableUserProjects, func(v any) bool {
		return v.(*models.UserProject).UserID == userID
	})
	out := make([]*models.UserProject, 0, len(found))
	for _, v := range found {
		c := *v.(*models.UserProject)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

func (r userProjectRepo) Delete(ctx context.Context, userID string, projectID int64) error {
	r.u.del(tableUserProjects, models.UserProjectKey(userID, projectID), models.UserGroup(userID))
	return nil
}

type fileRepo struct{ u *unit }

func cloneFile(f *models.File) *models.File {
	c := *f
	c.Content = cloneBytes(f.Content)
	return &c
}

func (r fileRepo) Get(ctx context.Context, projectID int64, name string) (*models.File, error) {
	v, ok := r.u.get(tableFiles, models.FileKey(projectID, name), models.ProjectGroup(projectID))
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneFile(v.(*models.File)), nil
}

func (r fileRepo) Put(ctx context.Context, f *models.File) error {
	r.u.put(tableFiles, models.FileKey(f.ProjectID, f.Name), models.ProjectGroup(f.ProjectID), cloneFile(f))
	return nil
}

func (r fileRepo) ListByProject(ctx context.Context, projectID int64) ([]*models.File, error) {
	r.u.watch(models.ProjectGroup(projectID))
	found := r.u.scan(tableFiles, func(v any) bool {
		return v.(*models.File).ProjectID == projectID
	})
	out := make([]*models.File, 0, len(found))
	for _, v := range found {
		out = append(out, cloneFile(v.(*models.File)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fileRepo) Delete(ctx context.Context, projectID int64, name string) error {
	r.u.del(tableFiles, models.FileKey(projectID, name), models.ProjectGroup(projectID))
	return nil
}

type userFileRepo struct{ u *unit }

func (r userFileRepo) Get(ctx context.Context, userID, name string) (*models.UserFile, error) {
	v, ok := r.u.get(tableUserFiles, models.UserFileKey(userID, name), models.UserGroup(userID))
	if !ok {
		return nil, common.ErrorNotFound
	}
	f := v.(*models.UserFile)
	return &models.UserFile{UserID: f.UserID, Name: f.Name, Content: cloneBytes(f.Content)}, nil
}

func (r userFileRepo) Put(ctx context.Context, f *models.UserFile) error {
	c := &models.UserFile{UserID: f.UserID, Name: f.Name, Content: cloneBytes(f.Content)}
	r.u.put(tableUserFiles, models.UserFileKey(f.UserID, f.Name), models.UserGroup(f.UserID), c)
	return nil
}

func (r userFileRepo) ListByUser(ctx context.Context, userID string) ([]string, error) {
	r.u.watch(models.UserGroup(userID))
	found := r.u.scan(tableUserFiles, func(v any) bool {
		return v.(*models.UserFile).UserID == userID
	})
	names := make([]string, 0, len(found))
	for _, v := range found {
		names = append(names, v.(*models.UserFile).Name)
	}
	sort.Strings(names)
	return names, nil
}

func (r userFileRepo) Delete(ctx context.Context, userID, name string) error {
	r.u.del(tableUserFiles, models.UserFileKey(userID, name), models.UserGroup(userID))
	return nil
}

type nonceRepo struct{ u *unit }

func (r nonceRepo) Get(ctx context.Context, value string) (*models.Nonce, error) {
	v, ok := r.u.get(tableNonces, value, models.NonceGroup(value))
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v.(*models.Nonce)
	return &c, nil
}

func (r nonceRepo) Put(ctx context.Context, n *models.Nonce) error {
	c := *n
	r.u.put(tableNonces, n.Value, models.NonceGroup(n.Value), &c)
	return nil
}

func (r nonceRepo) Delete(ctx context.Context, value string) error {
	r.u.del(tableNonces, value, models.NonceGroup(value))
	return nil
}

func (r nonceRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Nonce, error) {
	found := r.u.scan(tableNonces, func(v any) bool {
		return v.(*models.Nonce).Created.Before(cutoff)
	})
	out := make([]*models.Nonce, 0, len(found))
	for _, v := range found {
		c := *v.(*models.Nonce)
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type resetTokenRepo struct{ u *unit }

func (r resetTokenRepo) Get(ctx context.Context, id string) (*models.PasswordResetToken, error) {
	v, ok := r.u.get(tableResetTokens, id, models.ResetTokenGroup(id))
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v.(*models.PasswordResetToken)
	return &c, nil
}

func (r resetTokenRepo) Put(ctx context.Context, t *models.PasswordResetToken) error {
	c := *t
	r.u.put(tableResetTokens, t.ID, models.ResetTokenGroup(t.ID), &c)
	return nil
}

func (r resetTokenRepo) Delete(ctx context.Context, id string) error {
	r.u.del(tableResetTokens, id, models.ResetTokenGroup(id))
	return nil
}

func (r resetTokenRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.PasswordResetToken, error) {
	found := r.u.scan(tableResetTokens, func(v any) bool {
		return v.(*models.PasswordResetToken).Created.Before(cutoff)
	})
	out := make([]*models.PasswordResetToken, 0, len(found))
	for _, v := range found {
		c := *v.(*models.PasswordResetToken)
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordRepo struct{ u *unit }

func recordKey(kind, key string) string {
	return kind + "/" + key
}

func (r recordRepo) Get(ctx context.Context, kind, key string) (*models.Record, error) {
	v, ok := r.u.get(tableRecords, recordKey(kind, key), models.RecordGroup(kind, key))
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v.(*models.Record)
	return &c, nil
}

func (r recordRepo) Put(ctx context.Context, rec *models.Record) error {
	c := *rec
	r.u.put(tableRecords, recordKey(rec.Kind, rec.Key), models.RecordGroup(rec.Kind, rec.Key), &c)
	return nil
}

func (r recordRepo) Delete(ctx context.Context, kind, key string) error {
	r.u.del(tableRecords, recordKey(kind, key), models.RecordGroup(kind, key))
	return nil
}

type corruptionRepo struct{ u *unit }

func (r corruptionRepo) Add(ctx context.Context, rec *models.CorruptionRecord) error {
	id := r.u.allocateCorruptionID()
	key := fmt.Sprintf("%020d", id)
	c := *rec
	r.u.put(tableCorruption, key, models.Group("corruption:"+key), &c)
	return nil
}

func (r corruptionRepo) ListByProject(ctx context.Context, projectID int64) ([]*models.CorruptionRecord, error) {
	found := r.u.scan(tableCorruption, func(v any) bool {
		return v.(*models.CorruptionRecord).ProjectID == projectID
	})
	out := make([]*models.CorruptionRecord, 0, len(found))
	for _, v := range found {
		c := *v.(*models.CorruptionRecord)
		out = append(out, &c)
	}
	return out, nil
}
