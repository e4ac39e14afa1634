package sqlinline

// MCountWhere prefixes the per-table count built with quoted identifiers.
const MCountWhere = "--sql e9e5d769-b880-4850-811f-2cb56a5854e7\n"

const QListVolunteers = `--sql 7b6c3cf1-c8a5-4e9e-a529-54e0320784e6
select id::text, name, coalesce(skills, '')
from volunteers
order by created_at;
`

const QProjectStatuses = `--sql f5376fc3-8d9e-422a-ba17-3a35e940688d
select status
from projects
order by created_at;
`
