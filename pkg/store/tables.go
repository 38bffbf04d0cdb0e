package store

import "fmt"

// Each table is described by a versioned descriptor so schema changes can
// ship as new table versions instead of in-place migrations. Table names
// embed the version, e.g. "v1_users".
type tableDescriptor interface {
	Name() string
	Version() string
	Schema() (string, []interface{})
}

var allTableDescriptors = []tableDescriptor{
	users, groups, memberships, roles, roleAssignments,
	licenses, userLicenses, devices, applications, syncRuns,
}

const usersTableVersion = "1"
const usersTableName = "users"
const usersTableSchema = `
create table if not exists %s (
    id integer primary key,
    user_id text not null,
    tenant_id text not null,
    user_principal_name text not null,
    display_name text not null,
    primary_email text not null,
    department text not null,
    job_title text not null,
    office_location text not null,
    mobile_phone text not null,
    account_type text not null,
    account_enabled integer not null,
    is_admin integer not null,
    mfa_state text not null,
    mfa_capable integer,
    license_count integer not null,
    group_count integer not null,
    created_at text,
    last_password_change text,
    last_sign_in text,
    synced_at datetime not null
);
create unique index if not exists %s on %s (user_id, tenant_id);
create index if not exists %s on %s (tenant_id);`

var users = (*usersTable)(nil)

type usersTable struct{}

func (t *usersTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), usersTableName)
}

func (t *usersTable) Version() string {
	return usersTableVersion
}

func (t *usersTable) Schema() (string, []interface{}) {
	return usersTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_users_user_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_users_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const groupsTableVersion = "1"
const groupsTableName = "groups"
const groupsTableSchema = `
create table if not exists %s (
    id integer primary key,
    group_id text not null,
    tenant_id text not null,
    display_name text not null,
    description text not null,
    group_type text not null,
    mail_enabled integer not null,
    security_enabled integer not null,
    mail_nickname text not null,
    visibility text not null,
    member_count integer not null,
    owner_count integer not null,
    synced_at datetime not null
);
create unique index if not exists %s on %s (group_id, tenant_id);
create index if not exists %s on %s (tenant_id);`

var groups = (*groupsTable)(nil)

type groupsTable struct{}

func (t *groupsTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), groupsTableName)
}

func (t *groupsTable) Version() string {
	return groupsTableVersion
}

func (t *groupsTable) Schema() (string, []interface{}) {
	return groupsTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_groups_group_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_groups_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const membershipsTableVersion = "1"
const membershipsTableName = "user_groups"
const membershipsTableSchema = `
create table if not exists %s (
    id integer primary key,
    user_id text not null,
    group_id text not null,
    tenant_id text not null,
    member_role text not null,
    synced_at datetime not null
);
create index if not exists %s on %s (tenant_id);
create index if not exists %s on %s (user_id, tenant_id);`

var memberships = (*membershipsTable)(nil)

type membershipsTable struct{}

func (t *membershipsTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), membershipsTableName)
}

func (t *membershipsTable) Version() string {
	return membershipsTableVersion
}

func (t *membershipsTable) Schema() (string, []interface{}) {
	return membershipsTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_user_groups_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_user_groups_user_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const rolesTableVersion = "1"
const rolesTableName = "roles"
const rolesTableSchema = `
create table if not exists %s (
    id integer primary key,
    role_id text not null,
    tenant_id text not null,
    display_name text not null,
    description text not null,
    is_privileged integer not null,
    synced_at datetime not null
);
create unique index if not exists %s on %s (role_id, tenant_id);
create index if not exists %s on %s (tenant_id);`

var roles = (*rolesTable)(nil)

type rolesTable struct{}

func (t *rolesTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), rolesTableName)
}

func (t *rolesTable) Version() string {
	return rolesTableVersion
}

func (t *rolesTable) Schema() (string, []interface{}) {
	return rolesTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_roles_role_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_roles_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const roleAssignmentsTableVersion = "1"
const roleAssignmentsTableName = "user_roles"
const roleAssignmentsTableSchema = `
create table if not exists %s (
    id integer primary key,
    user_id text not null,
    role_id text not null,
    tenant_id text not null,
    synced_at datetime not null
);
create index if not exists %s on %s (tenant_id);
create index if not exists %s on %s (user_id, tenant_id);`

var roleAssignments = (*roleAssignmentsTable)(nil)

type roleAssignmentsTable struct{}

func (t *roleAssignmentsTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), roleAssignmentsTableName)
}

func (t *roleAssignmentsTable) Version() string {
	return roleAssignmentsTableVersion
}

func (t *roleAssignmentsTable) Schema() (string, []interface{}) {
	return roleAssignmentsTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_user_roles_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_user_roles_user_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const licensesTableVersion = "1"
const licensesTableName = "licenses"
const licensesTableSchema = `
create table if not exists %s (
    id integer primary key,
    sku_id text not null,
    tenant_id text not null,
    sku_part_number text not null,
    display_name text not null,
    status text not null,
    total_units integer not null,
    consumed_units integer not null,
    available_units integer not null,
    suspended_units integer not null,
    warning_units integer not null,
    monthly_cost_usd real not null,
    synced_at datetime not null
);
create unique index if not exists %s on %s (sku_id, tenant_id);
create index if not exists %s on %s (tenant_id);`

var licenses = (*licensesTable)(nil)

type licensesTable struct{}

func (t *licensesTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), licensesTableName)
}

func (t *licensesTable) Version() string {
	return licensesTableVersion
}

func (t *licensesTable) Schema() (string, []interface{}) {
	return licensesTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_licenses_sku_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_licenses_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const userLicensesTableVersion = "1"
const userLicensesTableName = "user_licenses"
const userLicensesTableSchema = `
create table if not exists %s (
    id integer primary key,
    user_id text not null,
    sku_id text not null,
    tenant_id text not null,
    synced_at datetime not null
);
create index if not exists %s on %s (tenant_id);
create index if not exists %s on %s (user_id, tenant_id);`

var userLicenses = (*userLicensesTable)(nil)

type userLicensesTable struct{}

func (t *userLicensesTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), userLicensesTableName)
}

func (t *userLicensesTable) Version() string {
	return userLicensesTableVersion
}

func (t *userLicensesTable) Schema() (string, []interface{}) {
	return userLicensesTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_user_licenses_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_user_licenses_user_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const devicesTableVersion = "1"
const devicesTableName = "devices"
const devicesTableSchema = `
create table if not exists %s (
    id integer primary key,
    device_id text not null,
    tenant_id text not null,
    display_name text not null,
    manufacturer text not null,
    model text not null,
    serial_number text not null,
    operating_system text not null,
    os_version text not null,
    is_compliant integer,
    is_managed integer,
    ownership text not null,
    registered_at text,
    last_seen text,
    synced_at datetime not null
);
create unique index if not exists %s on %s (device_id, tenant_id);
create index if not exists %s on %s (tenant_id);`

var devices = (*devicesTable)(nil)

type devicesTable struct{}

func (t *devicesTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), devicesTableName)
}

func (t *devicesTable) Version() string {
	return devicesTableVersion
}

func (t *devicesTable) Schema() (string, []interface{}) {
	return devicesTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_devices_device_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_devices_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const applicationsTableVersion = "1"
const applicationsTableName = "applications"
const applicationsTableSchema = `
create table if not exists %s (
    id integer primary key,
    service_principal_id text not null,
    tenant_id text not null,
    app_id text not null,
    display_name text not null,
    app_type text not null,
    account_enabled integer not null,
    last_sign_in text,
    synced_at datetime not null
);
create unique index if not exists %s on %s (service_principal_id, tenant_id);
create index if not exists %s on %s (tenant_id);`

var applications = (*applicationsTable)(nil)

type applicationsTable struct{}

func (t *applicationsTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), applicationsTableName)
}

func (t *applicationsTable) Version() string {
	return applicationsTableVersion
}

func (t *applicationsTable) Schema() (string, []interface{}) {
	return applicationsTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_applications_sp_tenant_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_applications_tenant_v%s", t.Version()),
		t.Name(),
	}
}

const syncRunsTableVersion = "1"
const syncRunsTableName = "sync_runs"
const syncRunsTableSchema = `
create table if not exists %s (
    id integer primary key,
    sync_run_id text not null,
    tenant_id text not null,
    sync_kind text not null,
    started_at datetime not null,
    ended_at datetime,
    records_synced integer not null default 0,
    records_failed integer not null default 0,
    outcome text not null default 'running'
);
create unique index if not exists %s on %s (sync_run_id);
create index if not exists %s on %s (tenant_id, sync_kind);`

var syncRuns = (*syncRunsTable)(nil)

type syncRunsTable struct{}

func (t *syncRunsTable) Name() string {
	return fmt.Sprintf("v%s_%s", t.Version(), syncRunsTableName)
}

func (t *syncRunsTable) Version() string {
	return syncRunsTableVersion
}

func (t *syncRunsTable) Schema() (string, []interface{}) {
	return syncRunsTableSchema, []interface{}{
		t.Name(),
		fmt.Sprintf("idx_sync_runs_run_v%s", t.Version()),
		t.Name(),
		fmt.Sprintf("idx_sync_runs_tenant_kind_v%s", t.Version()),
		t.Name(),
	}
}
